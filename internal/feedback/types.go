package feedback

// GrammarError is one grammar mistake with its correction.
type GrammarError struct {
	Word        string `json:"word"`
	Suggestion  string `json:"suggestion"`
	Explanation string `json:"explanation"`
}

// GrammarAnalysis is the grammar analyzer's result.
type GrammarAnalysis struct {
	ErrorCount int            `json:"error_count"`
	Errors     []GrammarError `json:"errors"`
}

// PronunciationError is one word a learner is likely to mispronounce.
type PronunciationError struct {
	Word        string `json:"word"`
	Phonetic    string `json:"phonetic"`
	Explanation string `json:"explanation"`
}

// PronunciationAnalysis is the pronunciation analyzer's result.
type PronunciationAnalysis struct {
	ErrorCount int                  `json:"error_count"`
	Errors     []PronunciationError `json:"errors"`
}

// VocabularySuggestion proposes stronger alternatives for a word.
type VocabularySuggestion struct {
	Word         string   `json:"word"`
	Alternatives []string `json:"alternatives"`
	Explanation  string   `json:"explanation"`
}

// VocabularyAnalysis combines local lexical statistics with the LLM's
// assessment.
type VocabularyAnalysis struct {
	WordCount        int                    `json:"word_count"`
	UniqueWords      int                    `json:"unique_words"`
	LexicalDiversity float64                `json:"lexical_diversity"`
	Level            string                 `json:"level"`
	AdvancedWords    []string               `json:"advanced_words"`
	Suggestions      []VocabularySuggestion `json:"suggestions"`
}

// TextFeedback is the combined result of AnalyzeText.
type TextFeedback struct {
	Grammar       GrammarAnalysis       `json:"grammar"`
	Pronunciation PronunciationAnalysis `json:"pronunciation"`
	Vocabulary    VocabularyAnalysis    `json:"vocabulary"`
	Text          string                `json:"text"`
}

// IdealAnswer compares a learner's answer with an ideal one.
type IdealAnswer struct {
	IdealAnswer            string `json:"ideal_answer"`
	UserStrengths          string `json:"user_strengths"`
	AreasForImprovement    string `json:"areas_for_improvement"`
	ImprovementSuggestions string `json:"improvement_suggestions"`
}
