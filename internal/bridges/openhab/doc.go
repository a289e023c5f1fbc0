// Package openhab is the REST bridge to an openHAB server.
//
// It implements the three operations the item engine needs (bulk item
// snapshot, single-item state read, single-item command) plus the optional
// external attribute document used by the alias containment model:
//
//	GET  {url}/rest/items?recursive=false&fields=...&metadata=semantics,synonyms
//	GET  {url}/rest/items/{name}
//	POST {url}/rest/items/{name}   (text/plain command body)
//	GET  {attributes_url}
//
// Every call is a single blocking request without retries. Non-success
// statuses are mapped to ErrNotFound (404) or ErrRequestFailed.
package openhab
