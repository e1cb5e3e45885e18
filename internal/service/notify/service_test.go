package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/k2nservice/console/internal/domain/models"
	client "github.com/k2nservice/console/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent []client.SendTextMessageRequest
	err  error
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

func TestBroadcast(t *testing.T) {
	fc := &fakeClient{}
	svc := NewService(fc, "224620000000", nil)

	if err := svc.Broadcast(context.Background(), "Bonjour"); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if len(fc.sent) != 1 || fc.sent[0].To != "224620000000" || fc.sent[0].Body != "Bonjour" {
		t.Fatalf("sent = %+v", fc.sent)
	}
}

func TestDisabled(t *testing.T) {
	if err := NewService(&fakeClient{}, "", nil).Broadcast(context.Background(), "x"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("no recipient: %v", err)
	}
	if err := NewService(nil, "224", nil).SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "x"}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("no client: %v", err)
	}
}

func TestSendOutboundStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&fakeClient{err: boom}, "224", nil)
	if err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "x"}); !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}
}

func TestSplit(t *testing.T) {
	text := "ligne un\nligne deux\nligne trois"
	parts := Split(text, 20)
	if len(parts) != 2 || parts[0] != "ligne un\nligne deux" || parts[1] != "ligne trois" {
		t.Fatalf("parts = %q", parts)
	}
	for _, p := range parts {
		if len([]rune(p)) > 20 {
			t.Fatalf("part too long: %q", p)
		}
	}

	long := strings.Repeat("é", 25)
	parts = Split(long, 10)
	if len(parts) != 3 || parts[2] != strings.Repeat("é", 5) {
		t.Fatalf("long parts = %q", parts)
	}

	if parts := Split("court", 10); len(parts) != 1 || parts[0] != "court" {
		t.Fatalf("short parts = %q", parts)
	}
}
