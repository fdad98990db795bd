package users

import "github.com/angelmondragon/bazaar-console/internal/gateway"

const (
	ResourceName   = "user"
	collectionPath = "/User"
)

// NewGateway binds the User collection; users are created with a plain POST /User.
func NewGateway(client *gateway.Client) *gateway.Resource[User] {
	return gateway.NewResource[User](client, ResourceName, collectionPath)
}
