// Package fhir implements the remote form source against a FHIR R4 server.
//
// Forms are Questionnaire resources. A patient's completion history comes
// from QuestionnaireResponse resources whose subject is the patient, which
// gives each form its last completion date and associated encounters.
//
// The client authenticates with OAuth2 client credentials when a client ID
// is configured, throttles requests with a token bucket and backs off when
// the server answers 429.
package fhir
