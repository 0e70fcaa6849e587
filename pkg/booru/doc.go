// Package booru implements a client for a danbooru-style image board API.
//
// The board exposes three JSON endpoints the downloader cares about: the tag
// index (total post counts), the paginated post search, and the user endpoint
// used to verify credentials. Post search URLs are assembled by hand because
// tag expressions use characters a generic query encoder would mangle.
package booru
