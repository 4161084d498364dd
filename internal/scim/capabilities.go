package scim

// Capability identifies a user-management operation the platform may push
// to the connector.
type Capability string

const (
	CapabilityPushNewUsers         Capability = "PUSH_NEW_USERS"
	CapabilityPushProfileUpdates   Capability = "PUSH_PROFILE_UPDATES"
	CapabilityPushPasswordUpdates  Capability = "PUSH_PASSWORD_UPDATES"
	CapabilityPushUserDeactivation Capability = "PUSH_USER_DEACTIVATION"
)

// ImplementedCapabilities is the static capability advertisement: user
// creation and profile updates are pushed to this connector, password
// pushes and deactivation pushes are not. The platform adjusts its own
// workflow from this list; nothing here is computed.
func ImplementedCapabilities() []Capability {
	return []Capability{
		CapabilityPushNewUsers,
		CapabilityPushProfileUpdates,
	}
}
