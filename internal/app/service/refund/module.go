package refund

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(NewReconciler, NewRequester),
)
