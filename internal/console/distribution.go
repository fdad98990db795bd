package console

import (
	"context"
	"errors"

	"github.com/angelmondragon/bazaar-console/internal/products"
	"github.com/angelmondragon/bazaar-console/internal/resource"
	"github.com/angelmondragon/bazaar-console/pkg/enums"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

// DistributionSource serves the category-distribution report.
type DistributionSource interface {
	CategoryDistribution(ctx context.Context) ([]products.CategoryCount, error)
}

type DistributionRender struct {
	Status enums.LoadStatus    `json:"status"`
	Chart  *products.Chart     `json:"chart"`
	Error  *resource.ErrorInfo `json:"error"`
}

// Distribution is the category chart screen.
type Distribution struct {
	src   DistributionSource
	state *resource.State[products.Chart]
	logg  *logger.Logger
}

func NewDistribution(src DistributionSource, logg *logger.Logger) *Distribution {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Distribution{src: src, state: resource.New[products.Chart](), logg: logg}
}

func (d *Distribution) Open(ctx context.Context) (DistributionRender, error) {
	if d.state.Snapshot().Status == enums.LoadStatusIdle {
		return d.Reload(ctx)
	}
	return d.Render(), nil
}

func (d *Distribution) Reload(ctx context.Context) (DistributionRender, error) {
	ctx = d.logg.WithResource(ctx, products.ResourceName)
	_, err := d.state.Load(ctx, func(ctx context.Context) (products.Chart, error) {
		counts, err := d.src.CategoryDistribution(ctx)
		if err != nil {
			return products.Chart{}, err
		}
		return products.BuildChart(counts), nil
	})
	if errors.Is(err, resource.ErrStale) {
		err = nil
	}
	if err != nil {
		d.logg.Error(ctx, "category distribution load failed", err)
	}
	return d.Render(), err
}

func (d *Distribution) Render() DistributionRender {
	snap := d.state.Snapshot()
	return DistributionRender{Status: snap.Status, Chart: snap.Data, Error: snap.Info()}
}
