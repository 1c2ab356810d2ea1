package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerFeatureRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/features/matches/{matchID}", handler.GetMatchFeatures)
	mux.HandleFunc("GET /v1/features/runs/last", handler.GetLastFeatureRun)
}

func registerModelRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/model/outcome/predict", handler.PredictOutcome)
	mux.HandleFunc("POST /v1/model/margin/predict", handler.PredictMargin)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/features/build", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.BuildFeatures)))
}
