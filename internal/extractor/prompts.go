package extractor

const systemPrompt = `You are a linguistic feature extractor for a Spanish-language emotional support chat.

For the user's message, return:

## Emotions
A probability for each of: joy, sadness, anger, fear, surprise, disgust, neutral.
Use "neutral" when the message carries no clear emotion. Probabilities are 0.0-1.0.

## Sentiment
Probabilities for positive, negative and neutral. They should sum to roughly 1.

## Hate speech
Scores 0.0-1.0 for hateful, targeted and aggressive.

## Irony
Scores 0.0-1.0 for ironic and not_ironic.

## Entities
Named entities mentioned by the user, copied verbatim, filed under:
- people: persons (names, nicknames, family members referred to by name)
- places: locations, cities, venues
- orgs: companies, schools, institutions
- others: any other named entity (works, events, products)

## Rules
- Never invent entities that are not in the message
- Keep entity names in the order they appear
- Return empty lists when a category has no entities`

const extractionUserPrompt = `Extract the features of this message.

Message:
---
%s
---

Return ONLY the JSON object, no markdown fences or other text.`
