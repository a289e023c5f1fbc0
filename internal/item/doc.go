// Package item is the in-memory item graph of an openHAB installation and the
// resolution engine that turns spoken phrases into concrete items.
//
// A Store is built once from a full snapshot of raw item records. Construction
// maps each record into an Item, lower-cases labels and synonyms, and derives
// HasPoints as the inverse of IsPointOf. There is no incremental update: build
// a new Store to refresh.
//
// # Containment models
//
// Three models describe how items sit inside locations:
//
//   - semantic: openHAB semantic metadata (hasLocation, isPointOf, isPartOf)
//   - group: plain group membership, locations are tagged Groups
//   - alias: group membership, locations and extra synonyms come from an
//     external attribute document
//
// All containment walks keep a visited set, so a cyclic graph yields
// "not contained" rather than unbounded recursion.
//
// # Resolution
//
// A spoken phrase is first looked up in the synonym.Index. Property tags match
// an item's RelatesTo, Equipment tags match its Semantics. Only when that finds
// nothing does the phrase fall back to direct label/synonym equality. The type
// filter and the room filter apply to both paths, so narrowing by room never
// grows a result.
//
// Usage:
//
//	store, err := item.Load(ctx, client, item.Options{Index: idx, Gateway: client})
//	if err != nil {
//	    return err
//	}
//	room := store.FindLocation("esszimmer")
//	lights := store.Resolve("licht", item.Query{Location: room})
//	store.SendCommand(ctx, lights, "ON")
//
// Thread Safety:
//   - A Store is read-only after construction and safe for concurrent use.
package item
