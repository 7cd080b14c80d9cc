package uplink

import (
	"context"
)

// Upload is a write recorded by FakeUplink.
type Upload struct {
	Path    string
	Payload []byte
}

// FakeUplink records uplink activity for test assertions.
type FakeUplink struct {
	// Uploads contains all successful writes.
	Uploads []Upload

	// ConnectCalls counts Connect calls.
	ConnectCalls int

	// OffCalls counts Off calls.
	OffCalls int

	// ConnectError, if set, will be returned by Connect.
	ConnectError error

	// UploadError, if set, will be returned by Upload.
	UploadError error

	// Connected reports whether the fake network is up.
	Connected bool
}

// NewFakeUplink creates a FakeUplink for testing.
func NewFakeUplink() *FakeUplink {
	return &FakeUplink{}
}

// Connect records the attach attempt.
func (f *FakeUplink) Connect(ctx context.Context) error {
	f.ConnectCalls++
	if f.ConnectError != nil {
		return f.ConnectError
	}
	f.Connected = true
	return nil
}

// Upload records the write.
func (f *FakeUplink) Upload(ctx context.Context, path string, payload []byte) error {
	if f.UploadError != nil {
		return f.UploadError
	}
	f.Uploads = append(f.Uploads, Upload{Path: path, Payload: payload})
	return nil
}

// Off marks the network as down.
func (f *FakeUplink) Off() error {
	f.OffCalls++
	f.Connected = false
	return nil
}

// Reset clears recorded activity.
func (f *FakeUplink) Reset() {
	f.Uploads = nil
	f.ConnectCalls = 0
	f.OffCalls = 0
	f.ConnectError = nil
	f.UploadError = nil
	f.Connected = false
}
