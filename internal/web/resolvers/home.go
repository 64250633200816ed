package resolvers

import (
	"blogcms/framework"
	"blogcms/internal/web/appcore"
	"blogcms/internal/web/components"
)

func Home(binding Binding) (framework.RouteHandler[*appcore.Context], error) {
	return framework.PageOnlyRouteHandler[*appcore.Context, framework.EmptyParams, appcore.HomeView]{
		Page: framework.PageModule[*appcore.Context, framework.EmptyParams, appcore.HomeView]{
			Pattern:     binding.pattern(),
			ParseParams: binding.emptyParams(),
			Load:        appcore.LoadHomePage,
			Render:      components.Home,
			Layouts: []framework.LayoutRenderer[appcore.HomeView]{
				components.RootLayout[appcore.HomeView](),
			},
		},
	}, nil
}
