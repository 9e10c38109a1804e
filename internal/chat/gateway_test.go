package chat_test

import (
	"context"
	"testing"

	"github.com/yko79135/lessonplangenerator/internal/chat"
)

func TestNewGateway(t *testing.T) {
	gw := chat.NewGateway()
	if gw == nil {
		t.Fatal("NewGateway() returned nil")
	}
}

func TestGateway_RegisterChannel(t *testing.T) {
	gw := chat.NewGateway()
	mock := &chat.MockChannel{}

	gw.Register("telegram", mock)

	if !gw.HasChannel("telegram") {
		t.Error("HasChannel(telegram) should be true after Register")
	}
	if gw.HasChannel("whatsapp") {
		t.Error("HasChannel(whatsapp) should be false when not registered")
	}
}

func TestGateway_SendMessage(t *testing.T) {
	gw := chat.NewGateway()
	mock := &chat.MockChannel{}
	gw.Register("telegram", mock)

	err := gw.Send(context.Background(), chat.OutboundMessage{
		Channel: "telegram",
		UserID:  "123",
		Text:    "안녕하세요",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(mock.SentMessages) != 1 {
		t.Errorf("SentMessages = %d, want 1", len(mock.SentMessages))
	}
}

func TestGateway_SendMessage_UnknownChannel(t *testing.T) {
	gw := chat.NewGateway()

	err := gw.Send(context.Background(), chat.OutboundMessage{
		Channel: "unknown",
		UserID:  "123",
		Text:    "Hello!",
	})
	if err == nil {
		t.Error("Send() should error for unknown channel")
	}
	if err := gw.SendTyping(context.Background(), "unknown", "123"); err == nil {
		t.Error("SendTyping() should error for unknown channel")
	}
}

func TestGateway_Reply(t *testing.T) {
	gw := chat.NewGateway()
	mock := &chat.MockChannel{}
	gw.Register("telegram", mock)

	in := chat.InboundMessage{Channel: "telegram", UserID: "77", Text: "/list"}
	if err := gw.Reply(context.Background(), in, "목록이 비어 있습니다."); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if len(mock.SentMessages) != 1 {
		t.Fatalf("SentMessages = %d, want 1", len(mock.SentMessages))
	}
	got := mock.SentMessages[0]
	if got.UserID != "77" || got.Text != "목록이 비어 있습니다." {
		t.Errorf("Reply sent %+v", got)
	}
}

func TestGateway_StopAll(t *testing.T) {
	gw := chat.NewGateway()
	mock := &chat.MockChannel{}
	gw.Register("telegram", mock)

	gw.StopAll()
	if !mock.Stopped {
		t.Error("StopAll() did not stop the channel")
	}
}
