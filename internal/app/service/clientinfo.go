package service

import (
	"fmt"
	"net"
	"time"

	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/mileusna/useragent"
	"github.com/oschwald/geoip2-golang"
)

// ClientContext carries the request metadata a redirect arrives with.
type ClientContext struct {
	IP        string
	UserAgent string
	Time      time.Time
}

// GeoResolver turns a client IP into a best-effort location string.
type GeoResolver interface {
	Locate(ip string) string
	Close() error
}

// NewGeoResolver opens a MaxMind City database at path. An empty path returns
// a resolver that answers "Unknown" for everything.
func NewGeoResolver(path string) (GeoResolver, error) {
	if path == "" {
		return noopGeoResolver{}, nil
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &maxmindResolver{reader: reader}, nil
}

type maxmindResolver struct {
	reader *geoip2.Reader
}

func (r *maxmindResolver) Locate(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return model.LocationUnknown
	}

	record, err := r.reader.City(parsed)
	if err != nil {
		return model.LocationUnknown
	}

	city := record.City.Names["en"]
	country := record.Country.IsoCode
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case country != "":
		return country
	default:
		return model.LocationUnknown
	}
}

func (r *maxmindResolver) Close() error {
	return r.reader.Close()
}

type noopGeoResolver struct{}

func (noopGeoResolver) Locate(string) string { return model.LocationUnknown }
func (noopGeoResolver) Close() error         { return nil }

// ClientInfo derives the stored access attributes from raw request metadata.
type ClientInfo struct {
	geo GeoResolver
}

// NewClientInfo returns a deriver using the given geo resolver. A nil
// resolver degrades to "Unknown" locations.
func NewClientInfo(geo GeoResolver) *ClientInfo {
	return &ClientInfo{geo: geo}
}

// Derive classifies the user agent into an OS family and a device class and
// resolves the IP to a location string.
func (p *ClientInfo) Derive(cc ClientContext) (osName, device, location string) {
	ua := useragent.Parse(cc.UserAgent)

	osName = ua.OS
	if osName == "" {
		osName = "Unknown"
	}

	switch {
	case ua.Mobile:
		device = model.DeviceMobile
	case ua.Tablet:
		device = model.DeviceTablet
	default:
		device = model.DeviceDesktop
	}

	location = model.LocationUnknown
	if p.geo != nil {
		location = p.geo.Locate(cc.IP)
	}
	return osName, device, location
}
