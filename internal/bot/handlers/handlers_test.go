package handlers

import "testing"

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		botName  string
		wantCmd  string
		wantArgs string
	}{
		{name: "bare command", text: "/start", wantCmd: "/start"},
		{name: "uppercase normalized", text: "/START", wantCmd: "/start"},
		{name: "with args", text: "/register Иван Петров", wantCmd: "/register", wantArgs: "Иван Петров"},
		{name: "bot mention stripped", text: "/help@stepbot", botName: "stepbot", wantCmd: "/help"},
		{name: "mention with args", text: "/link@stepbot abc123", botName: "stepbot", wantCmd: "/link", wantArgs: "abc123"},
		{name: "foreign mention kept", text: "/help@otherbot", botName: "stepbot", wantCmd: "/help@otherbot"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cmd, args := parseCommand(tc.text, tc.botName)
			if cmd != tc.wantCmd || args != tc.wantArgs {
				t.Errorf("parseCommand(%q, %q) = (%q, %q), want (%q, %q)",
					tc.text, tc.botName, cmd, args, tc.wantCmd, tc.wantArgs)
			}
		})
	}
}

func TestDecodeAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		data      string
		wantKind  ActionKind
		wantParam string
	}{
		{data: "menu", wantKind: ActionMenu},
		{data: "cat:15", wantKind: ActionCategoryOpen, wantParam: "15"},
		{data: "quest:edit:section2:clean_time", wantKind: ActionQuest, wantParam: "edit:section2:clean_time"},
		{data: "ai_help:3", wantKind: ActionAIHelp, wantParam: "3"},
		{data: "post_view:12", wantKind: ActionPostView, wantParam: "12"},
		{data: "bogus:1", wantKind: ActionUnknown, wantParam: "bogus:1"},
		{data: "", wantKind: ActionUnknown},
	}

	for _, tc := range tests {
		got := decodeAction(tc.data)
		if got.Kind != tc.wantKind || got.Param != tc.wantParam {
			t.Errorf("decodeAction(%q) = %+v, want kind %d param %q", tc.data, got, tc.wantKind, tc.wantParam)
		}
	}
}

func TestDecodeActionRoundTrip(t *testing.T) {
	t.Parallel()

	for token, kind := range actionTokens {
		got := decodeAction(callbackData(token, "7"))
		if got.Kind != kind || got.Param != "7" {
			t.Errorf("round trip for %q = %+v", token, got)
		}
		if got := decodeAction(callbackData(token, "")); got.Kind != kind || got.Param != "" {
			t.Errorf("paramless round trip for %q = %+v", token, got)
		}
	}
}

func TestValidHHMM(t *testing.T) {
	t.Parallel()

	valid := []string{"00:00", "09:00", "21:30", "23:59"}
	for _, s := range valid {
		if !validHHMM(s) {
			t.Errorf("validHHMM(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "9:00", "24:00", "12:60", "12-30", "12:345", "ab:cd", "12:3"}
	for _, s := range invalid {
		if validHHMM(s) {
			t.Errorf("validHHMM(%q) = true, want false", s)
		}
	}
}
