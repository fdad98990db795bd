package products

import (
	"context"

	"github.com/angelmondragon/bazaar-console/internal/gateway"
)

const (
	ResourceName = "product"

	collectionPath   = "/Product"
	createPath       = "/add"
	distributionPath = "/Product/category-distribution"
)

// Gateway is the Product collection plus its category-distribution report.
type Gateway struct {
	*gateway.Resource[Product]
	client *gateway.Client
}

func NewGateway(client *gateway.Client) *Gateway {
	return &Gateway{
		Resource: gateway.NewResource[Product](client, ResourceName, collectionPath, gateway.WithCreatePath(createPath)),
		client:   client,
	}
}

// CategoryDistribution fetches product counts per category.
func (g *Gateway) CategoryDistribution(ctx context.Context) ([]CategoryCount, error) {
	var counts []CategoryCount
	if err := g.client.GetJSON(ctx, ResourceName, "category_distribution", distributionPath, &counts); err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []CategoryCount{}
	}
	return counts, nil
}
