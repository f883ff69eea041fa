package generation

// DocumentType selects which generation prompt variant is used and which
// downstream batch fields are relevant.
type DocumentType string

const (
	DocumentTypeIntakeSummary DocumentType = "intake-summary"
	DocumentTypeTreatmentPlan DocumentType = "treatment-plan"
	DocumentTypeSessionNote   DocumentType = "session-note"
)

// Valid reports whether t is one of the closed document-type set.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeIntakeSummary, DocumentTypeTreatmentPlan, DocumentTypeSessionNote:
		return true
	}
	return false
}

const identityHeaderInstruction = `Begin the document with these exact label lines, one per line, before any other content:
PATIENT_NAME: <full name as found in the material, or "Unknown Patient">
CLIENT_ID: <client/chart identifier if present, otherwise omit this line>
DATE_OF_BIRTH: <date of birth if present, otherwise omit this line>

If any clinical content indicates acute risk (self-harm, harm to others, abuse), include the marker ⚠️ on its own line immediately after the label lines.`

const intakeSummarySystemPrompt = `You are a clinical documentation assistant for a behavioral health practice. You produce structured intake summaries from raw intake material: questionnaires, scanned forms, referral letters, and recorded interviews. Accuracy matters more than style; never invent clinical facts that are not in the source material.`

const intakeSummaryUserPrompt = `Produce a structured INTAKE SUMMARY from the attached intake material.

` + identityHeaderInstruction + `

Then produce these sections, each with a markdown heading:
1. Presenting Concerns
2. Relevant History (medical, psychiatric, family, social)
3. Current Medications
4. Mental Status Observations
5. Risk Assessment
6. Initial Impressions

Where the material is silent on a section, write "Not documented in intake material." Do not pad with generic language.`

const treatmentPlanSystemPrompt = `You are a clinical documentation assistant. You draft treatment plans grounded strictly in the supplied intake or assessment material. Goals must be measurable and tied to documented concerns.`

const treatmentPlanUserPrompt = `Draft a TREATMENT PLAN from the attached material.

` + identityHeaderInstruction + `

Then produce:
1. Diagnosis / Working Impressions (only as documented)
2. Long-Term Goals (2-4, measurable)
3. Short-Term Objectives per goal
4. Interventions and Modality
5. Frequency and Estimated Duration
6. Criteria for Discharge

Every goal must trace to a concern documented in the source material.`

const sessionNoteSystemPrompt = `You are a clinical documentation assistant. You write DARP-format session notes (Data, Assessment, Response, Plan) from session material: therapist shorthand, audio transcription, or scanned notes.`

const sessionNoteUserPrompt = `Write a DARP session note from the attached session material.

` + identityHeaderInstruction + `

Then produce exactly four sections:
DATA: observable content and client statements from the session.
ASSESSMENT: clinical assessment of presentation and progress.
RESPONSE: client's response to interventions used this session.
PLAN: plan for continued treatment and next session.

Keep each section to documented content only.`

// SystemPrompt returns the system instruction for a document type.
func SystemPrompt(t DocumentType) string {
	switch t {
	case DocumentTypeTreatmentPlan:
		return treatmentPlanSystemPrompt
	case DocumentTypeSessionNote:
		return sessionNoteSystemPrompt
	default:
		return intakeSummarySystemPrompt
	}
}

// UserPrompt returns the task prompt for a document type.
func UserPrompt(t DocumentType) string {
	switch t {
	case DocumentTypeTreatmentPlan:
		return treatmentPlanUserPrompt
	case DocumentTypeSessionNote:
		return sessionNoteUserPrompt
	default:
		return intakeSummaryUserPrompt
	}
}

// --- Preceptor perspectives ---

// Perspective is one reviewer voice in a preceptor case review.
type Perspective struct {
	Key    string
	Title  string
	Prompt string
}

// Perspectives returns the review voices applied to a document, in the
// order they appear in the merged review.
func Perspectives() []Perspective {
	return []Perspective{
		{
			Key:   "supervisor",
			Title: "Clinical Supervisor",
			Prompt: `Review the attached clinical document as a seasoned clinical supervisor.
Evaluate case conceptualization, appropriateness of the clinical approach, and anything a supervisor would flag before countersigning. Be direct and specific; cite the passages you are reacting to.`,
		},
		{
			Key:   "ethics",
			Title: "Ethics Reviewer",
			Prompt: `Review the attached clinical document strictly for ethical and legal considerations:
scope of practice, informed consent, confidentiality, duty-to-warn triggers, and documentation of risk. List each concern with the relevant passage.`,
		},
		{
			Key:   "efficacy",
			Title: "Treatment Efficacy Reviewer",
			Prompt: `Review the attached clinical document for treatment efficacy:
are interventions evidence-based for the documented presentation, are goals measurable, is progress (or its absence) honestly captured? Suggest concrete alternatives where warranted.`,
		},
		{
			Key:   "documentation",
			Title: "Documentation Quality Reviewer",
			Prompt: `Review the attached clinical document for documentation quality:
completeness, internal consistency, audit-readiness, and whether another clinician could pick up the case from this record alone. Note every gap.`,
		},
	}
}

const preceptorSystemPrompt = `You are one reviewer on a multi-perspective clinical preceptor panel. You review a single clinical document from your assigned perspective only. Write in complete prose under markdown headings; do not restate the document.`

// PreceptorSystemPrompt returns the shared system instruction for review calls.
func PreceptorSystemPrompt() string {
	return preceptorSystemPrompt
}
