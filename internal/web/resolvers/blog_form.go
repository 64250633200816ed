package resolvers

import (
	"blogcms/framework"
	"blogcms/internal/web/appcore"
	"blogcms/internal/web/components"
)

func BlogCreate(binding Binding) (framework.RouteHandler[*appcore.Context], error) {
	return framework.PageOnlyRouteHandler[*appcore.Context, framework.EmptyParams, appcore.FormView]{
		Page: framework.PageModule[*appcore.Context, framework.EmptyParams, appcore.FormView]{
			Pattern:     binding.pattern(),
			ParseParams: binding.emptyParams(),
			Load:        appcore.LoadBlogCreatePage,
			Action:      appcore.SubmitBlogCreate,
			Render:      components.Form,
			Layouts: []framework.LayoutRenderer[appcore.FormView]{
				components.RootLayout[appcore.FormView](),
			},
		},
	}, nil
}

func BlogUpdate(binding Binding) (framework.RouteHandler[*appcore.Context], error) {
	return framework.PageOnlyRouteHandler[*appcore.Context, framework.IDParams, appcore.FormView]{
		Page: framework.PageModule[*appcore.Context, framework.IDParams, appcore.FormView]{
			Pattern:     binding.pattern(),
			ParseParams: binding.idParams(),
			Load:        appcore.LoadBlogUpdatePage,
			Action:      appcore.SubmitBlogUpdate,
			Render:      components.Form,
			Layouts: []framework.LayoutRenderer[appcore.FormView]{
				components.RootLayout[appcore.FormView](),
			},
		},
	}, nil
}

// BlogCreateUpdate creates on a parameterless route and updates on a route with an identifier.
func BlogCreateUpdate(binding Binding) (framework.RouteHandler[*appcore.Context], error) {
	if binding.Table != nil && len(binding.Table.ParamNames(binding.Route.Name)) == 1 {
		return BlogUpdate(binding)
	}
	return BlogCreate(binding)
}
