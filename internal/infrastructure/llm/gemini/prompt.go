package gemini

// The four instructions sent over one conversation. The classification
// prompts demand one JSON object per uploaded file; the treatment and
// summary prompts demand a single JSON object.
const (
	scanPrompt = `Please provide type of report uploaded, technique, diagnosis details, findings, clinical indication and
impression for this medical report also provide medical report name for each of the files. Reply with only one JSON per one uploaded file and do not wrap JSON with ` + "```json```" + `. Return a LIST OF JSON with format of each JSON element given below:
{"Findings":"Findings of type Text","ClinicalIndication":"Clinical Indication of type Text","TypeOfReportUploaded":"Type Of Report Uploaded of type Text","MedicalReportName":"Unique medical Report Name of type Text","Diagnosis":"Diagnosis of type Text", "Impression":"Impression of type Text","Technique":"Technique of type Text"}`

	textPrompt = `Please provide medical report name and provide prognosis details for each of the files. Reply with only one JSON per one uploaded file and do not wrap JSON with ` + "```json```" + `. Return A LIST OF JSON with format of each JSON element given below:
{"Prognosis":"Prognosis of type Text","MedicalReportName":"Unique medical Report Name of type Text"}`

	treatmentPrompt = `Please provide a list of different treatment details with brief description and associated cost for all pdf and image files uploaded in the previous prompts in rupees and if its a range then return the LOWEST cost in rupees. Reply with only one JSON in and do not wrap JSON with ` + "```json```" + `. The JSON format specified below:
{"TreatmentDetails":[{"TreatmentDescription":"Treatment Description of type Text","TypeOfTreatment":"TypeOfTreatment of type Text","Cost":"Cost of type Number in rupees"}]}`

	summaryPrompt = `Please provide a clinical summary for all pdf and image files in previous prompts. Reply with only one JSON in and do not wrap JSON with ` + "```json```" + ` also do not provide any new line charecter. The JSON format specified below:
{"Summary":"Summary of type Text"}`
)
