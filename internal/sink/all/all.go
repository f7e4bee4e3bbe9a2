// Package all links every built-in store into the sink registry.
package all

import (
	_ "github.com/JonMunkholm/dbroute/internal/sink/document"
	_ "github.com/JonMunkholm/dbroute/internal/sink/graph"
	_ "github.com/JonMunkholm/dbroute/internal/sink/keyvalue"
	_ "github.com/JonMunkholm/dbroute/internal/sink/relational"
)
