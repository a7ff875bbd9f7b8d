package model

import (
	"fmt"
	"sort"
)

const General = "general"

type RoomType string

const (
	TypeGeneral RoomType = "general"
	TypePrivate RoomType = "private"
	TypeGroup   RoomType = "group"
)

type Room struct {
	Members []string `json:"members"`
	Admins  []string `json:"admins"`
	Type    RoomType `json:"type"`
}

// RoomsDoc is the rooms collection: room name -> room record. The general
// room is implicit and never stored.
type RoomsDoc map[string]Room

// BlocksDoc is the blocks collection: nickname -> blocked nicknames.
// The relation is directional.
type BlocksDoc map[string][]string

// PrivateKey derives the canonical room key for a private chat. It is
// order-independent: PrivateKey(a, b) == PrivateKey(b, a).
func PrivateKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return fmt.Sprintf("private_%s_%s", pair[0], pair[1])
}

func (r Room) HasMember(nick string) bool {
	for _, m := range r.Members {
		if m == nick {
			return true
		}
	}
	return false
}

func (r Room) HasAdmin(nick string) bool {
	for _, a := range r.Admins {
		if a == nick {
			return true
		}
	}
	return false
}

// WithoutMember returns the member list with nick removed, order preserved.
func WithoutMember(members []string, nick string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m != nick {
			out = append(out, m)
		}
	}
	return out
}
