package discovery

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

// groupEntry is a single (network, application, group) triple discovered
// in a TREEXML tree walk, with whatever display name C-Gate attached.
type groupEntry struct {
	Application int
	Group       int
	Name        string
}

// treeResult is a parsed TREEXML response for one network.
type treeResult struct {
	NetworkName string
	Groups      []groupEntry
}

// Two on-the-wire encodings of the same TREEXML shape are known to occur:
// values carried as XML attributes, and values carried as child elements.
// parseTreeXML tries the attribute encoding first and falls back to the
// element encoding if it yields no groups, satisfying §4.4's "tolerant of
// two encodings" requirement without needing a custom xml.Unmarshaler.

type treeNetworkAttr struct {
	XMLName      xml.Name             `xml:"Network"`
	Address      string               `xml:"Address,attr"`
	Name         string               `xml:"Name,attr"`
	Applications []treeApplicationAttr `xml:"Application"`
}

type treeApplicationAttr struct {
	Address string         `xml:"Address,attr"`
	Groups  []treeGroupAttr `xml:"Group"`
}

type treeGroupAttr struct {
	Address string `xml:"Address,attr"`
	Name    string `xml:"Name,attr"`
}

type treeNetworkElem struct {
	XMLName      xml.Name             `xml:"Network"`
	Address      string               `xml:"Address"`
	Name         string               `xml:"Name"`
	Applications []treeApplicationElem `xml:"Application"`
}

type treeApplicationElem struct {
	Address string         `xml:"Address"`
	Groups  []treeGroupElem `xml:"Group"`
}

type treeGroupElem struct {
	Address string `xml:"Address"`
	Name    string `xml:"Name"`
}

func parseTreeXML(body string) (treeResult, error) {
	var attrTree treeNetworkAttr
	if err := xml.Unmarshal([]byte(body), &attrTree); err == nil {
		if groups := flattenAttr(attrTree); len(groups) > 0 {
			return treeResult{NetworkName: attrTree.Name, Groups: groups}, nil
		}
	}

	var elemTree treeNetworkElem
	if err := xml.Unmarshal([]byte(body), &elemTree); err != nil {
		return treeResult{}, fmt.Errorf("%w: %w", ErrMalformedTree, err)
	}
	groups := flattenElem(elemTree)
	if len(groups) == 0 {
		return treeResult{}, ErrMalformedTree
	}
	return treeResult{NetworkName: elemTree.Name, Groups: groups}, nil
}

func flattenAttr(tree treeNetworkAttr) []groupEntry {
	var out []groupEntry
	for _, app := range tree.Applications {
		appID, err := strconv.Atoi(app.Address)
		if err != nil {
			continue
		}
		for _, g := range app.Groups {
			groupID, err := strconv.Atoi(g.Address)
			if err != nil {
				continue
			}
			out = append(out, groupEntry{Application: appID, Group: groupID, Name: g.Name})
		}
	}
	return out
}

func flattenElem(tree treeNetworkElem) []groupEntry {
	var out []groupEntry
	for _, app := range tree.Applications {
		appID, err := strconv.Atoi(app.Address)
		if err != nil {
			continue
		}
		for _, g := range app.Groups {
			groupID, err := strconv.Atoi(g.Address)
			if err != nil {
				continue
			}
			out = append(out, groupEntry{Application: appID, Group: groupID, Name: g.Name})
		}
	}
	return out
}
