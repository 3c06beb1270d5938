package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/info>; rel="info"`,
		`</api/maps>; rel="maps"`,
		`</api/capabilities>; rel="capabilities"`,
	},
	"/api/info": {
		`</health>; rel="health"`,
		`</api/maps>; rel="maps"`,
	},
	"/api/maps": {
		`</api/map>; rel="create"`,
		`</api/icons>; rel="icons"`,
	},
	"/api/map/{id}": {
		`</api/maps>; rel="collection"`,
		`</api/map/{id}/style>; rel="style"`,
		`</api/map/{id}/stats>; rel="stats"`,
	},
	"/api/map/{id}/style": {
		`</api/map/{id}>; rel="map"`,
	},
	"/api/capabilities": {
		`</api/analyze>; rel="analyze"`,
		`</api/normalize>; rel="normalize"`,
	},
	"/api/icons": {
		`</api/maps>; rel="maps"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
