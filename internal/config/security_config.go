package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityRefresh                      // Refresh token required
	SecurityAccess                       // Access token required
	SecurityAdmin                        // Access token with the admin role required
)

// EndpointSecurityConfig maps gRPC full method names and HTTP route names to the
// token they require.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,

	"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      SecurityPublic,
	"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": SecurityPublic,

	"/marketplace.admin.v1.PayoutService/ListPayouts":   SecurityAdmin,
	"/marketplace.admin.v1.PayoutService/ReleasePayout": SecurityAdmin,

	"healthz":         SecurityPublic,
	"login":           SecurityPublic,
	"refresh":         SecurityRefresh,
	"payment-webhook": SecurityPublic,
	"quote":           SecurityAccess,

	"create-booking":  SecurityAccess,
	"list-bookings":   SecurityAccess,
	"get-booking":     SecurityAccess,
	"approve-booking": SecurityAccess,
	"reject-booking":  SecurityAccess,
	"cancel-booking":  SecurityAccess,
	"confirm-pickup":  SecurityAccess,
	"mark-returned":   SecurityAccess,
	"confirm-return":  SecurityAccess,
	"open-dispute":    SecurityAccess,
	"sync-payment":    SecurityAccess,

	"list-notifications": SecurityAccess,
	"read-notification":  SecurityAccess,
	"deactivate-listing": SecurityAccess,

	"list-payouts":    SecurityAdmin,
	"release-payout":  SecurityAdmin,
	"bulk-release":    SecurityAdmin,
	"mark-disputed":   SecurityAdmin,
	"resolve-dispute": SecurityAdmin,
	"approve-listing": SecurityAdmin,
	"reject-listing":  SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given method or route name.
// Unknown endpoints require an access token.
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	return SecurityAccess
}
