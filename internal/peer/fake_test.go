package peer

import (
	"errors"
	"testing"

	"github.com/sweeney/range-sensor/internal/fault"
)

func TestFakePeerNotifyRequiresAttach(t *testing.T) {
	f := NewFakePeer()

	err := f.Notify("12.00")
	if fault.Of(err) != fault.PeerUnavailable {
		t.Errorf("expected peer unavailable, got %v", err)
	}

	f.Attach()
	if !f.Connected() {
		t.Fatal("expected connected after Attach")
	}
	if err := f.Notify("12.00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Notifications) != 1 || f.Notifications[0] != "12.00" {
		t.Errorf("unexpected notifications: %v", f.Notifications)
	}

	f.Detach()
	if f.Connected() {
		t.Error("expected detached")
	}
}

func TestFakePeerNotifyError(t *testing.T) {
	f := NewFakePeer()
	f.Attach()
	f.NotifyError = errors.New("link lost")

	if err := f.Notify("1.00"); err == nil || err.Error() != "link lost" {
		t.Errorf("expected scripted error, got %v", err)
	}
	if len(f.Notifications) != 0 {
		t.Error("failed notify should not be recorded")
	}
}

func TestFakePeerAdvertiseAndClose(t *testing.T) {
	f := NewFakePeer()
	f.Advertise()
	f.Advertise()
	if f.AdvertiseCalls != 2 {
		t.Errorf("expected 2 advertise calls, got %d", f.AdvertiseCalls)
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}
