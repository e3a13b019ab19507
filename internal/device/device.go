// Package device builds the process-wide DeviceDescriptor: the identity
// this server presents to SSDP and renders into device.xml.
package device

import (
	"fmt"

	"github.com/gofrs/uuid/v5"
)

// namespace is a fixed, arbitrary UUID used as the v5 hashing namespace so
// that (host identity, server name) always derive the same device UUID
// across restarts, per the DeviceDescriptor.uuid invariant.
var namespace = uuid.Must(uuid.FromString("7b1e6b2a-5d1a-4e9e-9a9b-9f7f9b8f2b3a"))

// Descriptor is the process-wide, immutable device identity.
type Descriptor struct {
	FriendlyName string
	Manufacturer string
	ModelName    string
	ModelNumber  string
	UUID         string
	HTTPPort     int
}

// New builds a Descriptor. uuid is derived deterministically from
// hostIdentity (e.g. the primary MAC address or hostname) and serverName
// via a collision-resistant hash (UUID v5), truncated/formatted as a UUID.
func New(hostIdentity, serverName, friendlyName, manufacturer, modelName, modelNumber string, httpPort int) Descriptor {
	id := uuid.NewV5(namespace, hostIdentity+"|"+serverName)
	return Descriptor{
		FriendlyName: friendlyName,
		Manufacturer: manufacturer,
		ModelName:    modelName,
		ModelNumber:  modelNumber,
		UUID:         id.String(),
		HTTPPort:     httpPort,
	}
}

// USN returns the device's root USN ("uuid:<uuid>").
func (d Descriptor) USN() string {
	return fmt.Sprintf("uuid:%s", d.UUID)
}
