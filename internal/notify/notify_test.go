package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/designstudio/pkg/logger"
)

func TestFlash_CollectsAndDrains(t *testing.T) {
	f := NewFlash()
	f.Notify(context.Background(), "Your cart is empty!", KindError)
	f.Notify(context.Background(), "Order created! Redirecting to payment...", KindSuccess)

	got := f.Drain()
	assert.Equal(t, []Notification{
		{Message: "Your cart is empty!", Kind: KindError},
		{Message: "Order created! Redirecting to payment...", Kind: KindSuccess},
	}, got)
	assert.Empty(t, f.Drain())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logger.NewWithWriter("test", "info", &buf))

	n.Notify(context.Background(), "Please login to proceed with checkout", KindError)

	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "Please login to proceed with checkout")
}

func TestMulti_FansOut(t *testing.T) {
	a, b := NewFlash(), NewFlash()
	Multi{a, nil, b}.Notify(context.Background(), "hi", KindInfo)

	assert.Len(t, a.Drain(), 1)
	assert.Len(t, b.Drain(), 1)
}

func TestContextNotifier(t *testing.T) {
	var n ContextNotifier
	n.Notify(context.Background(), "no flash", KindInfo)

	reqFlash := NewFlash()
	ctx := WithFlash(context.Background(), reqFlash)
	n.Notify(ctx, "with flash", KindSuccess)

	assert.Equal(t, []Notification{{Message: "with flash", Kind: KindSuccess}}, reqFlash.Drain())
	assert.Nil(t, FlashFromContext(context.Background()))
}

func TestMulti_FlashAndLog(t *testing.T) {
	var buf bytes.Buffer
	n := Multi{ContextNotifier{}, NewLogNotifier(logger.NewWithWriter("test", "info", &buf))}

	reqFlash := NewFlash()
	n.Notify(WithFlash(context.Background(), reqFlash), "Order created! Redirecting to payment...", KindSuccess)

	assert.Len(t, reqFlash.Drain(), 1)
	assert.Contains(t, buf.String(), "Order created! Redirecting to payment...")
}
