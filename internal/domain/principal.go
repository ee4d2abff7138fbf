package domain

// AuthMethod describes how a caller authenticated with the API.
type AuthMethod string

const (
	AuthMethodJWT     AuthMethod = "jwt"
	AuthMethodGateway AuthMethod = "gateway"
)

// Principal captures normalized caller identity independent of auth mechanism.
type Principal struct {
	AuthMethod AuthMethod
	Subject    string
	Email      string
	Name       string
}
