package console

import (
	"context"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/bazaar-console/internal/chat"
	"github.com/angelmondragon/bazaar-console/internal/gateway"
	"github.com/angelmondragon/bazaar-console/internal/products"
	"github.com/angelmondragon/bazaar-console/internal/users"
	"github.com/angelmondragon/bazaar-console/pkg/logger"
)

type (
	ProductsView = ListView[products.Product, products.Card]
	UsersView    = ListView[users.User, users.Card]
)

// Workspace holds every screen of one console session.
type Workspace struct {
	Products     *ProductsView
	Users        *UsersView
	Distribution *Distribution
	Chat         *chat.Session

	logg *logger.Logger
}

// NewWorkspace builds the screens over a backend client and a chat session.
func NewWorkspace(client *gateway.Client, session *chat.Session, logg *logger.Logger) *Workspace {
	if logg == nil {
		logg = logger.Nop()
	}
	productGateway := products.NewGateway(client)
	return &Workspace{
		Products:     NewListView[products.Product, products.Card](productGateway, products.SearchFields, products.ID, products.Present, logg),
		Users:        NewListView[users.User, users.Card](users.NewGateway(client), users.SearchFields, users.ID, users.Present, logg),
		Distribution: NewDistribution(productGateway, logg),
		Chat:         session,
		logg:         logg,
	}
}

// DashboardRender is the home screen: user directory, category chart and chat, plus the
// product list it links to.
type DashboardRender struct {
	Users        ListRender[users.Card]    `json:"users"`
	Distribution DistributionRender        `json:"distribution"`
	Products     ListRender[products.Card] `json:"products"`
	Chat         chat.View                 `json:"chat"`
}

// Dashboard loads the home panels concurrently. Panels already loaded are reused unless
// refresh is set. Every panel is rendered even when others fail; the returned error
// combines the panel failures.
func (w *Workspace) Dashboard(ctx context.Context, refresh bool) (DashboardRender, error) {
	var (
		out                            DashboardRender
		usersErr, distErr, productsErr error
		g                              errgroup.Group
	)

	g.Go(func() error {
		if refresh {
			out.Users, usersErr = w.Users.Reload(ctx)
		} else {
			out.Users, usersErr = w.Users.Open(ctx)
		}
		return nil
	})
	g.Go(func() error {
		if refresh {
			out.Distribution, distErr = w.Distribution.Reload(ctx)
		} else {
			out.Distribution, distErr = w.Distribution.Open(ctx)
		}
		return nil
	})
	g.Go(func() error {
		if refresh {
			out.Products, productsErr = w.Products.Reload(ctx)
		} else {
			out.Products, productsErr = w.Products.Open(ctx)
		}
		return nil
	})
	_ = g.Wait()

	if w.Chat != nil {
		out.Chat = w.Chat.View()
	} else {
		out.Chat = chat.View{Messages: []chat.Message{}}
	}
	return out, multierr.Combine(usersErr, distErr, productsErr)
}
