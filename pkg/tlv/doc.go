// Package tlv implements the compact tag-length-value codec used for the
// signing protocol messages.
//
// Every element starts with a control octet: the lower 5 bits carry the
// element type, the upper 3 bits the tag form. Two tag forms exist:
// anonymous (no tag octet) and context-specific (one tag octet). Values are
// little-endian. Integers use the smallest width that fits, octet strings
// carry a 1, 2 or 4 octet length prefix.
//
// Messages are encoded as an anonymous structure of context-tagged fields:
//
//	w := tlv.NewWriter(&buf)
//	w.StartStructure(tlv.Anonymous())
//	w.PutUint(tlv.ContextTag(0), 2)
//	w.PutBytes(tlv.ContextTag(1), hmac)
//	w.EndContainer()
//
// Readers bound the length of any single octet string so a malicious peer
// cannot force a large allocation.
package tlv
