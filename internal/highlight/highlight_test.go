package highlight

import (
	"reflect"
	"testing"
)

func TestMatch(t *testing.T) {
	rules := Compile([]string{"deploy", "c++", "on call"}, []string{"deploy bot"}, &Self{ID: "U42", Name: "alice"})

	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "plain word", text: "starting the deploy now", expected: true},
		{name: "case insensitive", text: "DEPLOY finished", expected: true},
		{name: "start of text", text: "deploy?", expected: true},
		{name: "underscore boundary", text: "see deploy_log", expected: true},
		{name: "punctuation boundary", text: "(deploy)", expected: true},
		{name: "inside another word", text: "redeployed it", expected: false},
		{name: "suffix inside word", text: "deployment", expected: false},
		{name: "regexp metacharacters", text: "who knows c++ here", expected: true},
		{name: "multi word", text: "who is on call tonight", expected: true},
		{name: "own name", text: "ping Alice please", expected: true},
		{name: "own mention token", text: "hey <@U42> look", expected: true},
		{name: "someone else mentioned", text: "hey <@U43> look", expected: false},
		{name: "excluded phrase wins", text: "deploy bot: deploy finished", expected: false},
		{name: "empty text", text: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := rules.Match(tt.text)
			if result != tt.expected {
				t.Errorf("Match(%q) = %v, want %v (pattern %s)", tt.text, result, tt.expected, rules.Pattern())
			}
		})
	}
}

func TestEmptyRulesNeverMatch(t *testing.T) {
	rules := Compile(nil, nil, nil)
	if rules.Match("anything at all") {
		t.Error("empty rule set matched")
	}
	if rules.Pattern() != "" {
		t.Errorf("Pattern() = %q, want empty", rules.Pattern())
	}

	var nilRules *Rules
	if nilRules.Match("x") {
		t.Error("nil rules matched")
	}
}

func TestWordsAreNormalized(t *testing.T) {
	rules := Compile([]string{" ops ", "OPS", "", "incident"}, nil, nil)
	got := rules.Words()
	want := []string{"incident", "ops"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words() = %v, want %v", got, want)
	}
}

func TestSplitPref(t *testing.T) {
	got := SplitPref("C1, C2,,C3 ")
	want := []string{"C1", "C2", "C3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitPref() = %v, want %v", got, want)
	}
	if SplitPref("") != nil {
		t.Error("SplitPref(\"\") should be nil")
	}
}
