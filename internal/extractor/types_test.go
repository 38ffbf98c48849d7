package extractor

import "testing"

func TestDominant(t *testing.T) {
	tests := []struct {
		name      string
		sentiment map[string]float64
		wantLabel string
		wantProb  float64
		wantOK    bool
	}{
		{"clear winner", map[string]float64{Positive: 0.2, Negative: 0.7, Neutral: 0.1}, Negative, 0.7, true},
		{"tie prefers positive", map[string]float64{Positive: 0.5, Negative: 0.5}, Positive, 0.5, true},
		{"tie negative over neutral", map[string]float64{Neutral: 0.4, Negative: 0.4, Positive: 0.2}, Negative, 0.4, true},
		{"empty", nil, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &FeatureRecord{Sentiment: tt.sentiment}
			label, prob, ok := r.Dominant()
			if label != tt.wantLabel || prob != tt.wantProb || ok != tt.wantOK {
				t.Errorf("Dominant() = %q, %v, %v; want %q, %v, %v", label, prob, ok, tt.wantLabel, tt.wantProb, tt.wantOK)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	r := &FeatureRecord{
		Sentiment: map[string]float64{"POS": 0.6, "neg": 0.3, "NEU": 0.1},
		Entities: map[Category][]string{
			"People": {" Ana ", ""},
			"places": {"Madrid"},
			"animals": {"Toby"},
		},
	}
	r.Normalize()

	if r.Sentiment[Positive] != 0.6 || r.Sentiment[Negative] != 0.3 || r.Sentiment[Neutral] != 0.1 {
		t.Errorf("unexpected sentiment: %v", r.Sentiment)
	}
	if got := r.Entities[People]; len(got) != 1 || got[0] != "Ana" {
		t.Errorf("expected [Ana], got %v", got)
	}
	if got := r.Entities[Places]; len(got) != 1 || got[0] != "Madrid" {
		t.Errorf("expected [Madrid], got %v", got)
	}
	if _, ok := r.Entities["animals"]; ok {
		t.Error("unknown category should be dropped")
	}
	if r.Emotion == nil {
		t.Error("expected empty emotion map, got nil")
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("expected %q to be valid", c)
		}
	}
	if Category("animals").Valid() {
		t.Error("expected animals to be invalid")
	}
	if len(Categories) != 4 {
		t.Errorf("expected 4 categories, got %d", len(Categories))
	}
}

func TestEmotionLabelsSorted(t *testing.T) {
	r := &FeatureRecord{Emotion: map[string]float64{"sadness": 0.1, "anger": 0.2, "joy": 0.7}}
	got := r.EmotionLabels()
	want := []string{"anger", "joy", "sadness"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("EmotionLabels() = %v, want %v", got, want)
		}
	}
}

func TestShortSentiment(t *testing.T) {
	r := &FeatureRecord{Sentiment: map[string]float64{Positive: 0.6, Neutral: 0.3, Negative: 0.1}}
	got := r.ShortSentiment()
	if got["POS"] != 0.6 || got["NEU"] != 0.3 || got["NEG"] != 0.1 || len(got) != 3 {
		t.Errorf("unexpected short sentiment: %v", got)
	}
	if n := len((&FeatureRecord{}).ShortSentiment()); n != 0 {
		t.Errorf("expected empty map, got %d keys", n)
	}
}
