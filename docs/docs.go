package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Heavy-Haul Load Planner API",
    "description": "Cargo extraction, truck selection, load planning and route permit analysis",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/healthz": {"get": {"tags": ["health"], "summary": "Health check", "responses": {"200": {"description": "OK"}, "503": {"description": "Database unavailable"}}}},
    "/api/trucks": {"get": {"tags": ["trucks"], "summary": "Truck catalog", "responses": {"200": {"description": "OK"}}}},
    "/api/cargo/analyze": {"post": {"tags": ["cargo"], "summary": "Analyze cargo", "consumes": ["application/json", "multipart/form-data"], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid input"}, "413": {"description": "File too large"}, "429": {"description": "AI rate limited"}, "502": {"description": "Extraction failed"}, "504": {"description": "Timed out"}}}},
    "/api/route/analyze": {"post": {"tags": ["route"], "summary": "Analyze route", "consumes": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid input"}, "422": {"description": "No route"}, "502": {"description": "Upstream failed"}, "504": {"description": "Timed out"}}}},
    "/api/units/parse": {"post": {"tags": ["units"], "summary": "Parse dimensions", "consumes": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid input"}}}},
    "/api/runs/latest": {"get": {"tags": ["runs"], "summary": "Latest run", "parameters": [{"name": "kind", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid admin key"}, "404": {"description": "No runs"}}}}
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
