package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConnectionsHeading introduces the section that collects agent-added links.
const ConnectionsHeading = "## Connections"

// AddWikilink adds a [[target]] reference to a note. The link is written as a
// bullet under the Connections section (created at the end of the body when
// missing), target is appended to the header links, and the header updated
// timestamp is set to now. Unknown header keys keep their order.
//
// Content that already contains [[target]] is returned unchanged.
func AddWikilink(data []byte, target, context string, now time.Time) ([]byte, error) {
	token := "[[" + target + "]]"
	if bytes.Contains(data, []byte(token)) {
		return data, nil
	}

	mapping, body, ok := headerNode(data)
	if !ok {
		body = string(data)
	}
	if mapping == nil {
		mapping = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}

	bullet := "- " + token
	if context != "" {
		bullet = "- " + context + ": " + token
	}
	body = insertConnection(body, bullet)

	appendLink(mapping, target)
	setScalar(mapping, "updated", now.UTC().Format(TimeLayout))

	return Render(mapping, body)
}

// Render serialises a header mapping and body into the stored note format.
func Render(mapping *yaml.Node, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return nil, fmt.Errorf("parser: encode header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("parser: encode header: %w", err)
	}
	buf.WriteString(delim + "\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func insertConnection(body, bullet string) string {
	if strings.TrimSpace(body) == "" {
		return ConnectionsHeading + "\n" + bullet + "\n"
	}
	lines := strings.SplitAfter(body, "\n")
	offset := 0
	for _, line := range lines {
		offset += len(line)
		if strings.TrimRight(line, "\r\n") != ConnectionsHeading {
			continue
		}
		head := body[:offset]
		if !strings.HasSuffix(head, "\n") {
			head += "\n"
		}
		return head + bullet + "\n" + body[offset:]
	}
	return body + "\n\n" + ConnectionsHeading + "\n" + bullet + "\n"
}

// valueOf returns the value node for key in a mapping node.
func valueOf(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func setValue(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

func setScalar(mapping *yaml.Node, key, value string) {
	setValue(mapping, key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}

func appendLink(mapping *yaml.Node, target string) {
	item := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: target}
	links := valueOf(mapping, "links")
	if links == nil || links.Kind != yaml.SequenceNode {
		setValue(mapping, "links", &yaml.Node{
			Kind:    yaml.SequenceNode,
			Tag:     "!!seq",
			Content: []*yaml.Node{item},
		})
		return
	}
	for _, existing := range links.Content {
		if existing.Value == target {
			return
		}
	}
	links.Content = append(links.Content, item)
}
