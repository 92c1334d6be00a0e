package service

import (
	"GroupChatAI/service/ai"
	"GroupChatAI/service/chat"
	"GroupChatAI/service/mail"

	notifysrv "GroupChatAI/module/notify/service"
)

// Service owns the durable-write paths for groups, messages and
// invitations. Every write commits first and only then touches the
// dispatcher; realtime delivery failing never rolls anything back.
type Service struct {
	Disp   *chat.Dispatcher
	Notify *notifysrv.Service
	Mail   *mail.Sender
	AI     *ai.Client
	Rates  ai.Rates
}

func New(disp *chat.Dispatcher, notify *notifysrv.Service, sender *mail.Sender, aic *ai.Client, rates ai.Rates) *Service {
	return &Service{Disp: disp, Notify: notify, Mail: sender, AI: aic, Rates: rates}
}
