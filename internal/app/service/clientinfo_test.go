package service

import (
	"testing"

	"github.com/linklytics/linklytics/internal/app/model"
)

const (
	windowsChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	iphoneSafariUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
	ipadSafariUA    = "Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
)

func TestClientInfo_Derive(t *testing.T) {
	tests := []struct {
		name       string
		userAgent  string
		wantOS     string
		wantDevice string
	}{
		{name: "windows desktop", userAgent: windowsChromeUA, wantOS: "Windows", wantDevice: model.DeviceDesktop},
		{name: "iphone", userAgent: iphoneSafariUA, wantOS: "iOS", wantDevice: model.DeviceMobile},
		{name: "ipad", userAgent: ipadSafariUA, wantOS: "iOS", wantDevice: model.DeviceTablet},
		{name: "empty user agent", userAgent: "", wantOS: "Unknown", wantDevice: model.DeviceDesktop},
	}

	info := NewClientInfo(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			osName, device, location := info.Derive(ClientContext{IP: "203.0.113.7", UserAgent: tt.userAgent})
			if osName != tt.wantOS {
				t.Errorf("os = %q, want %q", osName, tt.wantOS)
			}
			if device != tt.wantDevice {
				t.Errorf("device = %q, want %q", device, tt.wantDevice)
			}
			if location != model.LocationUnknown {
				t.Errorf("location = %q, want %q without a geo resolver", location, model.LocationUnknown)
			}
		})
	}
}

func TestNewGeoResolver_EmptyPathIsNoop(t *testing.T) {
	geo, err := NewGeoResolver("")
	if err != nil {
		t.Fatalf("NewGeoResolver returned error: %v", err)
	}
	defer geo.Close()

	if loc := geo.Locate("203.0.113.7"); loc != model.LocationUnknown {
		t.Fatalf("expected %q, got %q", model.LocationUnknown, loc)
	}
}

type stubGeoResolver struct{ loc string }

func (s stubGeoResolver) Locate(string) string { return s.loc }
func (s stubGeoResolver) Close() error         { return nil }

func TestClientInfo_Derive_UsesGeoResolver(t *testing.T) {
	info := NewClientInfo(stubGeoResolver{loc: "Berlin, DE"})
	_, _, location := info.Derive(ClientContext{IP: "203.0.113.7", UserAgent: windowsChromeUA})
	if location != "Berlin, DE" {
		t.Fatalf("location = %q, want %q", location, "Berlin, DE")
	}
}
