package api

import (
	"github.com/gorilla/handlers"
)

// handleCompression compresses responses for clients accepting gzip or deflate
func (b *Backend) handleCompression() {
	b.router.Use(handlers.CompressHandler)
}
