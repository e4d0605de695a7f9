package handlers

import (
	"encoding/json"
	"net/http"
)

type object = map[string]interface{}

func queryParam(name, description, schemaType string) object {
	return object{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      object{"type": schemaType},
	}
}

func dateParam(name, description string) object {
	p := queryParam(name, description+" (YYYY-MM-DD)", "string")
	p["schema"] = object{"type": "string", "format": "date"}
	return p
}

func pathParam(name, description string) object {
	return object{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      object{"type": "integer"},
	}
}

var paginationParams = []object{
	{
		"name":        "page",
		"in":          "query",
		"description": "Page number (default: 1)",
		"required":    false,
		"schema":      object{"type": "integer", "default": 1},
	},
	{
		"name":        "limit",
		"in":          "query",
		"description": "Records per page (default: 100, max: 1000)",
		"required":    false,
		"schema":      object{"type": "integer", "default": 100},
	},
}

func operation(summary, description string, responses object, params ...object) object {
	op := object{
		"summary":     summary,
		"description": description,
		"responses":   responses,
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return op
}

func jsonResponse(description string) object {
	return object{
		"description": description,
		"content": object{
			"application/json": object{"schema": object{"type": "object"}},
		},
	}
}

func withBody(op object, description string) object {
	op["requestBody"] = object{
		"required":    true,
		"description": description,
		"content": object{
			"application/json": object{"schema": object{"type": "object"}},
		},
	}
	return op
}

func responses(codes ...string) object {
	descriptions := map[string]string{
		"200": "Successful response",
		"201": "Resource created",
		"204": "Resource deleted",
		"400": "Invalid request",
		"404": "Resource not found",
		"409": "Resource already exists",
		"503": "Storage unavailable",
	}
	out := object{}
	for _, code := range codes {
		if code == "204" {
			out[code] = object{"description": descriptions[code]}
			continue
		}
		out[code] = jsonResponse(descriptions[code])
	}
	return out
}

func withParams(params []object, more ...object) []object {
	return append(append([]object(nil), params...), more...)
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the Nursery Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	region := queryParam("region", "Region id; unknown ids fall back to the default region", "string")
	lang := queryParam("lang", "Display language (es or en); Accept-Language is used otherwise", "string")
	nurseryID := pathParam("id", "Nursery ID")

	spec := object{
		"openapi": "3.0.0",
		"info": object{
			"title":       "Nursery Platform API",
			"description": "Tree nursery management with a regional season engine, species library, care tasks and input logs",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Nursery Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": object{
			"/api/season": object{
				"get": operation("Current season", "Season of a date (today by default) with boundaries, next change and recommendations",
					responses("200", "400"), region, dateParam("date", "Date to classify"), lang),
			},
			"/api/season/calendar": object{
				"get": operation("Yearly calendar", "Season of every month for a region", responses("200"), region, lang),
			},
			"/api/season/preview": object{
				"get": operation("Start month preview", "Season a prospective nursery start month falls in",
					responses("200", "400"), queryParam("month", "Month 1-12", "integer"), region, lang),
			},
			"/api/season/watering-window": object{
				"get": operation("Watering window", "Sunrise, sunset and recommended watering hours",
					responses("200", "400"), region, dateParam("date", "Day to compute")),
			},
			"/api/regions": object{
				"get": operation("List regions", "Every configured region and the default region", responses("200")),
			},
			"/api/regions/{id}": object{
				"get": operation("Get region", "Season calendar configuration of a region", responses("200", "404"),
					object{"name": "id", "in": "path", "required": true, "schema": object{"type": "string"}}),
			},
			"/api/species": object{
				"get": operation("List species", "Species library with filtering and pagination", responses("200", "400"),
					withParams(paginationParams,
						queryParam("category", "Filter by category", "string"),
						queryParam("search", "Case-insensitive match on common or scientific name", "string"),
						queryParam("nitrogen_fixer", "Filter nitrogen fixers", "boolean"),
						queryParam("native", "Filter native species", "boolean"),
					)...),
			},
			"/api/species/stats": object{
				"get": operation("Species statistics", "Library counts by category, nitrogen fixers and natives", responses("200")),
			},
			"/api/species/{id}": object{
				"get": operation("Get species", "A single species", responses("200", "404"), pathParam("id", "Species ID")),
			},
			"/api/species/{id}/watering-interval": object{
				"get": operation("Watering interval", "Effective watering interval of a species for the season of a date",
					responses("200", "400", "404"), pathParam("id", "Species ID"), region, dateParam("date", "Date to classify")),
			},
			"/api/nurseries": object{
				"get":  operation("List nurseries", "Every nursery ordered by id", responses("200")),
				"post": withBody(operation("Create nursery", "The first nursery becomes the active one", responses("201", "400")), "name, start_month, region, language"),
			},
			"/api/nurseries/active": object{
				"get": operation("Active nursery", "Selected nursery, or the oldest one", responses("200", "404")),
				"put": withBody(operation("Select active nursery", "Null clears the selection", responses("200", "404")), "nursery_id"),
			},
			"/api/nurseries/{id}": object{
				"get":    operation("Get nursery", "A single nursery", responses("200", "404"), nurseryID),
				"put":    withBody(operation("Update nursery", "Partial update", responses("200", "400", "404"), nurseryID), "name, start_month, region, language"),
				"delete": operation("Delete nursery", "Deletes the nursery with its plantings, tasks and logs", responses("204", "404"), nurseryID),
			},
			"/api/nurseries/{id}/stats": object{
				"get": operation("Nursery statistics", "Total plants, distinct species and task counts", responses("200", "404"), nurseryID),
			},
			"/api/nurseries/{id}/plantings": object{
				"get":  operation("List plantings", "Plantings of a nursery", responses("200", "404"), nurseryID),
				"post": withBody(operation("Add planting", "Species defaults fill missing pot and transplant fields", responses("201", "400", "404"), nurseryID), "species_id or species_name, quantity, pot_size_gal, pot_depth_cm, expected_transplant_date"),
			},
			"/api/plantings/{id}": object{
				"delete": operation("Delete planting", "Tasks and logs of the planting are kept", responses("204", "404"), pathParam("id", "Planting ID")),
			},
			"/api/nurseries/{id}/tasks": object{
				"get": operation("List tasks", "Tasks ordered by date", responses("200", "400", "404"),
					withParams(paginationParams, nurseryID,
						queryParam("status", "pending, completed or skipped", "string"),
						queryParam("category", "water, fertilize, em, prune, hardening or transplant", "string"),
						queryParam("planting_id", "Filter by planting", "integer"),
						dateParam("start_date", "Earliest task date"),
						dateParam("end_date", "Latest task date"),
					)...),
				"post": withBody(operation("Create task", "Details carry a category discriminator", responses("201", "400", "404"), nurseryID), "date, planting_id, category, status, details"),
			},
			"/api/tasks/{id}/status": object{
				"put": withBody(operation("Update task status", "Completing or skipping stamps completed_at; reopening clears it", responses("200", "400", "404"), pathParam("id", "Task ID")), "status"),
			},
			"/api/nurseries/{id}/input-logs": object{
				"get": operation("List input logs", "Logs ordered newest first", responses("200", "400", "404"),
					withParams(paginationParams, nurseryID,
						queryParam("input_type", "Filter by input type", "string"),
						queryParam("planting_id", "Filter by planting", "integer"),
						dateParam("start_date", "Earliest log date"),
						dateParam("end_date", "Latest log date"),
					)...),
				"post": withBody(operation("Create input log", "Records an applied input", responses("201", "400", "404"), nurseryID), "date, input_type, quantity, units, notes, task_id, planting_id"),
			},
			"/api/nurseries/{id}/input-logs/stats": object{
				"get": operation("Input log statistics", "Count and total quantity per input type with the 10 most recent logs",
					responses("200", "400", "404"), nurseryID, dateParam("start_date", "Earliest log date"), dateParam("end_date", "Latest log date")),
			},
			"/api/input-logs/{id}": object{
				"delete": operation("Delete input log", "Removes a log", responses("204", "404"), pathParam("id", "Input log ID")),
			},
			"/health": object{
				"get": operation("Health check", "Check the API and its storage", responses("200", "503")),
			},
			"/metrics": object{
				"get": object{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": object{
						"200": object{
							"description": "Prometheus metrics in text format",
							"content": object{
								"text/plain": object{"schema": map[string]string{"type": "string"}},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
