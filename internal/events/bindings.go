package events

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"metachat/notification-service/internal/models"
	"metachat/notification-service/internal/repository"
	"metachat/notification-service/internal/service"
	"metachat/notification-service/internal/trigger"
)

var (
	MessagePattern = repository.ChatRoomCollection + "/{chatRoomId}/" + repository.MessageCollection + "/{messageId}"
	CallPattern    = repository.CallCollection + "/{callId}"
)

type Handlers struct {
	Notifier      *service.MessageNotifier
	UnreadCounter *service.UnreadCounter
	CallNotifier  *service.CallNotifier
}

// Register binds the document-creation handlers to their paths. The two
// message handlers share a pattern and run as independent invocations.
func Register(r *trigger.Router, h Handlers) error {
	bindings := []struct {
		pattern string
		name    string
		handler trigger.Handler
	}{
		{MessagePattern, "sendNotificationOnNewMessage", func(ctx context.Context, ev trigger.Event) error {
			msg, err := decodeMessage(ev)
			if err != nil {
				return err
			}
			return h.Notifier.NotifyNewMessage(ctx, ev.Params["chatRoomId"], msg)
		}},
		{MessagePattern, "incrementUnreadCounter", func(ctx context.Context, ev trigger.Event) error {
			msg, err := decodeMessage(ev)
			if err != nil {
				return err
			}
			return h.UnreadCounter.IncrementForMessage(ctx, ev.Params["chatRoomId"], msg)
		}},
		{CallPattern, "sendCallNotification", func(ctx context.Context, ev trigger.Event) error {
			call, err := decodeCall(ev)
			if err != nil {
				return err
			}
			return h.CallNotifier.NotifyIncomingCall(ctx, ev.Params["callId"], call)
		}},
	}

	for _, b := range bindings {
		if err := r.On(b.pattern, b.name, b.handler); err != nil {
			return fmt.Errorf("register %s: %w", b.name, err)
		}
	}
	return nil
}

func decodeMessage(ev trigger.Event) (*models.Message, error) {
	if ev.Data == nil {
		return nil, nil
	}
	var msg models.Message
	if err := decode(ev.Data, &msg); err != nil {
		return nil, fmt.Errorf("decode message %s: %w", ev.Document, err)
	}
	msg.ID = ev.Params["messageId"]
	msg.ChatRoomID = ev.Params["chatRoomId"]
	return &msg, nil
}

func decodeCall(ev trigger.Event) (*models.Call, error) {
	if ev.Data == nil {
		return nil, nil
	}
	var call models.Call
	if err := decode(ev.Data, &call); err != nil {
		return nil, fmt.Errorf("decode call %s: %w", ev.Document, err)
	}
	call.ID = ev.Params["callId"]
	return &call, nil
}

func decode(data map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
