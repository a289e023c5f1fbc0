// Package synonym maps openHAB semantic tags to the words people use for them.
//
// An Index is built from a per-language properties resource where each key is a
// semantic tag and each value a comma-separated list of spoken forms:
//
//	Location_Indoor_Room_LivingRoom=Wohnzimmer
//	Equipment_Lightbulb=Licht,Lampe,Leuchte
//	Property_Light=Licht,Helligkeit
//
// The Index answers both directions: tag → synonyms (for vocabulary injection)
// and synonym → tags (for resolving a spoken phrase). A synonym may map to
// several tags; all of them are returned in the order they first appeared.
//
// Resources for German (de) and English (en) are embedded. A directory on disk
// can replace them via LoadDir.
//
// Thread Safety:
//   - An Index is immutable after construction and safe for concurrent use.
package synonym
