package resolvers

import (
	"blogcms/framework"
	"blogcms/internal/web/appcore"
	"blogcms/internal/web/components"
)

// BlogDetail serves the rendered blog and its live stream at "<detail path>/live".
func BlogDetail(binding Binding) (framework.RouteHandler[*appcore.Context], error) {
	return framework.LiveRouteHandler[*appcore.Context, framework.IDParams, appcore.DetailView, appcore.DetailView]{
		Page: framework.PageModule[*appcore.Context, framework.IDParams, appcore.DetailView]{
			Pattern:     binding.pattern(),
			ParseParams: binding.idParams(),
			Load:        appcore.LoadBlogDetailPage,
			Render:      components.Detail,
			Layouts: []framework.LayoutRenderer[appcore.DetailView]{
				components.RootLayout[appcore.DetailView](),
			},
		},
		Live: framework.LiveModule[*appcore.Context, framework.IDParams, appcore.DetailView]{
			Pattern:     binding.pattern() + liveSuffix,
			ParseParams: binding.liveIDParams(),
			Subscribe:   appcore.SubscribeBlogDetail,
			SelectorID:  components.BlogDetailID,
			Render:      components.BlogDetail,
		},
	}, nil
}
