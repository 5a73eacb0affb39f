package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// Knowledge collections queried by the pipeline stages.
	CollectionOutcomeIndicators = "outcome-indicators"
	CollectionIndicatorMethods  = "indicator-methods"

	// STAGE 1 - Outcome extraction from the uploaded project document.
	OutcomeExtractionInstructionV1 = `You are an expert in regenerative land management and ecological project design.

Read the attached project document and extract the desired OUTCOMES the project aims to achieve. An outcome is a concrete goal the project wants to reach (e.g. "improved soil health", "increased bird diversity", "restored riparian vegetation").

Rules:
1. Extract only outcomes explicitly stated or clearly implied by the document.
2. Phrase each outcome as a short noun phrase, not a full sentence.
3. Do not invent outcomes that are not supported by the document.
4. If the document contains no identifiable outcomes, return an empty list.`

	OutcomeSchemaHintV1 = `Respond with ONLY a JSON array of strings, one outcome per element. No prose before or after the array. Example: ["improved soil health", "increased pollinator abundance"]`

	// STAGE 2 - Indicator resolution, one query per outcome.
	IndicatorQueryTemplateV1 = `You are an expert in ecological monitoring for regenerative projects.

For the desired outcome "%s", list the measurable INDICATORS that would show progress toward this outcome. An indicator is a measurable proxy (e.g. "soil organic carbon", "bird species richness").

Respond with ONLY a JSON array of strings, one indicator per element. If the reference passages contain no suitable indicators, respond with an empty array [].`

	// STAGE 3 - Method resolution, one query per indicator.
	MethodQueryTemplateV1 = `You are an expert in ecological monitoring for regenerative projects.

For the indicator "%s", list the data-collection METHODS that could measure it. For each method give its accuracy, cost and ease of use on a scale of: very low, low, medium, high, very high.

Respond with ONLY a JSON array of objects with exactly these keys: "name", "accuracy", "cost", "ease_of_use". If the reference passages contain no suitable methods, respond with an empty array [].`

	// Conversation summarization for long sessions.
	ConversationSummaryPromptV1 = `Summarize the following conversation turns in at most two sentences, keeping any stated monitoring priorities and decisions:

%s`

	// User-facing notices emitted by the session service.
	SessionOpeningMessage = "Hi! Upload a project document and I will extract its desired outcomes, find measurable indicators, and recommend monitoring methods that fit your priorities."

	NoOutcomesNotice = "I could not find any desired outcomes in this document. Please check that it describes the project's goals, or upload a different document."

	DocumentUnreadableNotice = "I could not read this document. Please upload it again, or try a different file."

	PlanReadyNotice = "The monitoring plan is ready. You can ask follow-up questions about any outcome, indicator or method."

	RestartNotice = "The session has been reset. Upload a project document to start again."
)
