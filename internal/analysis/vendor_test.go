package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVendor(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want string
	}{
		{name: "short leading name falls back to two words", desc: "AWS Monthly Bill", want: "AWS Monthly"},
		{name: "name before digits", desc: "Google Cloud 12345", want: "Google Cloud"},
		{name: "name before dash is normalized", desc: "Acme   Widgets - invoice", want: "Acme Widgets"},
		{name: "payee after marker", desc: "#4411 Payment to Acme Corp", want: "Acme Corp"},
		{name: "name before plan keyword", desc: "Slack Subscription #123", want: "Slack"},
		{name: "whole capitalized description", desc: "Zoom", want: "Zoom"},
		{name: "too short for any rule", desc: "AWS - Monthly Bill", want: "AWS -"},
		{name: "single short word", desc: "X", want: "X"},
		{name: "single long word truncated", desc: "abcdefghijklmnopqrstuvwxyz0123456789", want: "abcdefghijklmnopqrstuvwxyz0123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVendor(tt.desc))
		})
	}
}

func TestVendorRules_Independent(t *testing.T) {
	got, ok := VendorRules[0].Match("Google Cloud 12345")
	assert.True(t, ok)
	assert.Equal(t, "Google Cloud", got)

	got, ok = VendorRules[1].Match("Wire From Initech Ltd")
	assert.True(t, ok)
	assert.Equal(t, "Initech Ltd", got)

	got, ok = VendorRules[2].Match("Notion Plan yearly")
	assert.True(t, ok)
	assert.Equal(t, "Notion", got)

	_, ok = VendorRules[2].Match("notion plan")
	assert.False(t, ok)

	for _, r := range VendorRules {
		assert.Equal(t, PatternRule, r.Kind)
	}
}
