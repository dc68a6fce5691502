package tracing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ft4fttsim/ft4fttsim/networking"
	"github.com/ft4fttsim/ft4fttsim/sim"
)

// NamedHookable is a hookable object with a name.
type NamedHookable interface {
	sim.Named
	sim.Hookable
}

// CollectTrace lets the writer record the events raised by the domain.
func CollectTrace(domain NamedHookable, w EventWriter) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*traceHook)
		if ok && hook.w == w {
			panic(fmt.Sprintf(
				"domain %s already has writer %s",
				domain.Name(), reflect.TypeOf(w)))
		}
	}

	domain.AcceptHook(&traceHook{w: w})
}

// CollectNetworkTrace attaches the writer to every port and sublink of the
// devices, and to the devices themselves.
func CollectNetworkTrace(devs []networking.Device, w EventWriter) {
	seen := make(map[*networking.Link]bool)

	for _, d := range devs {
		CollectTrace(d, w)

		for _, p := range d.Ports() {
			CollectTrace(p, w)

			l := p.Link()
			if l == nil || seen[l] {
				continue
			}

			seen[l] = true
			for _, s := range l.Sublinks() {
				CollectTrace(s, w)
			}
		}
	}
}

type traceHook struct {
	w EventWriter
}

// Func turns the hook context into an event.
func (h *traceHook) Func(ctx sim.HookCtx) {
	named, ok := ctx.Domain.(sim.Named)
	if !ok {
		return
	}

	e := Event{
		Time:     ctx.Now,
		Location: named.Name(),
		What:     ctx.Pos.Name,
	}

	if msg, ok := ctx.Item.(*networking.Message); ok {
		e.MsgID = msg.ID()
		if msg.Source() != nil {
			e.Source = msg.Source().Name()
		}
		e.Destination = msg.Destination().String()
		e.MsgType = string(msg.Type())
		e.SizeBytes = msg.SizeBytes()
		e.Detail = detailString(ctx.Detail)
	} else {
		e.Detail = detailString(ctx.Item)
	}

	h.w.Write(e)
}

func detailString(detail any) string {
	switch d := detail.(type) {
	case nil:
		return ""
	case []*networking.Port:
		names := make([]string, 0, len(d))
		for _, p := range d {
			names = append(names, p.Name())
		}

		return strings.Join(names, " ")
	default:
		return fmt.Sprint(d)
	}
}
