package didl

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// germanCharMap transcribes the umlaut substitution table the renderer
// control layer applies to item metadata before embedding it in an
// AVTransport SetAVTransportURI/SetNextAVTransportURI call. Renderers are
// frequently stricter about the character set they accept in metadata than
// in the media stream itself.
var germanCharMap = map[rune]string{
	'ä': "ae", 'Ä': "Ae",
	'ö': "oe", 'Ö': "Oe",
	'ü': "ue", 'Ü': "Ue",
	'ß': "ss",
}

// Transliterate replaces German umlauts and eszett with their ASCII
// digraph equivalents.
func Transliterate(s string) string {
	var b strings.Builder
	for _, r := range s {
		if repl, ok := germanCharMap[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const metadataTemplate = `<DIDL-Lite xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/" xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/"><item id="%s" parentID="-1" restricted="1">%s%s</item></DIDL-Lite>`

// BuildMetadata renders a DIDL-Lite fragment suitable for the
// CurrentURIMetaData / NextURIMetaData argument of an AVTransport call. Any
// of title/artist/creator/author/actor may be empty, in which case the
// corresponding tag is omitted. resXML, if non-empty, is appended verbatim
// (see StripResNamespace) after the text fields.
func BuildMetadata(title, artist, creator, author, actor, class, resXML string) string {
	var fields strings.Builder
	addField(&fields, "dc:title", title)
	addField(&fields, "dc:creator", creator)
	addField(&fields, "upnp:artist", artist)
	addField(&fields, "upnp:actor", actor)
	addField(&fields, "upnp:author", author)
	if class != "" {
		addField(&fields, "upnp:class", class)
	} else {
		addField(&fields, "upnp:class", "object.item.audioItem.musicTrack")
	}

	id := uuid.NewString()
	return fmt.Sprintf(metadataTemplate, id, fields.String(), resXML)
}

func addField(b *strings.Builder, tag, value string) {
	if value == "" {
		return
	}
	transliterated := Transliterate(value)
	fmt.Fprintf(b, "<%s>%s</%s>", tag, Escape(transliterated), tag)
}

// Escape performs the minimal XML text escaping the metadata templates rely
// on (&, <, >). encoding/xml's own escaper is avoided here because it would
// also escape quotes inside resXML fragments that are meant to pass through
// untouched.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// StripResNamespace removes a namespace prefix (e.g. "ns0:") from a
// serialized <res> element and its accompanying xmlns declaration, leaving
// the element's attributes and text content untouched. ContentDirectory
// responses frequently serialize <res> with a generated prefix that is
// meaningless once the element is lifted out of its original document and
// re-embedded in a fresh DIDL-Lite fragment.
func StripResNamespace(resXML string) string {
	openIdx := strings.Index(resXML, "<")
	if openIdx == -1 {
		return resXML
	}
	resIdx := strings.Index(resXML[openIdx:], "res")
	if resIdx == -1 {
		return resXML
	}
	resIdx += openIdx

	prefixStart := openIdx + 1
	prefixEnd := resIdx
	prefix := strings.TrimSuffix(resXML[prefixStart:prefixEnd], ":")
	if prefix == "" || prefix == "res" {
		return resXML
	}

	stripped := strings.ReplaceAll(resXML, "<"+prefix+":res", "<res")
	stripped = strings.ReplaceAll(stripped, "</"+prefix+":res>", "</res>")

	nsAttr := "xmlns:" + prefix + "="
	if nsStart := strings.Index(stripped, nsAttr); nsStart != -1 {
		quoteStart := nsStart + len(nsAttr)
		if quoteStart < len(stripped) {
			quoteChar := stripped[quoteStart]
			if quoteEnd := strings.IndexByte(stripped[quoteStart+1:], quoteChar); quoteEnd != -1 {
				end := quoteStart + 1 + quoteEnd + 1
				stripped = strings.TrimSpace(stripped[:nsStart]) + " " + strings.TrimSpace(stripped[end:])
			}
		}
	}

	return stripped
}
