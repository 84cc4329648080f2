package toolcatalog

// googleNames renames canonical tools into Gemini's camelCase
// function-declaration vocabulary.
var googleNames = map[string]string{
	"file.read":          "readFile",
	"file.write":         "writeFile",
	"file.edit":          "editFile",
	"file.glob":          "glob",
	"file.grep":          "grep",
	"file.list":          "listFiles",
	"file.exists":        "fileExists",
	"file.delete":        "deleteFile",
	"file.rename":        "renameFile",
	"file.mkdir":         "mkdir",
	"file.deleteDir":     "deleteDir",
	"terminal.execute":   "bash",
	"terminal.spawn":     "bashSpawn",
	"git.status":         "gitStatus",
	"git.diff":           "gitDiff",
	"lsp.definition":     "lspDefinition",
	"lsp.references":     "lspReferences",
	"ai.todo.get":        "todoGet",
	"ai.todo.write":      "todoWrite",
	"ai.document.create": "documentCreate",
	"ai.document.update": "documentUpdate",
	"ai.document.list":   "documentList",
	"ai.document.get":    "documentGet",
	"ai.document.search": "documentSearch",
	"ai.plan.create":     "planCreate",
	"ai.plan.update":     "planUpdate",
	"ai.plan.list":       "planList",
	"ai.plan.content":    "planContent",
	"ai.spec.create":     "specCreate",
	"ai.spec.update":     "specUpdate",
	"ai.spec.list":       "specList",
	"ai.message.search":  "messageSearch",
}

var googleParams = map[string]map[string]string{
	"file.read":      {"path": "filePath"},
	"file.write":     {"path": "filePath"},
	"file.edit":      {"path": "filePath"},
	"file.exists":    {"path": "filePath"},
	"file.delete":    {"path": "filePath"},
	"file.mkdir":     {"path": "filePath"},
	"file.deleteDir": {"path": "filePath"},
	"file.rename":    {"path": "filePath", "new_path": "newFilePath"},
	"file.list":      {"path": "filePath"},
	"lsp.definition": {"path": "filePath"},
	"lsp.references": {"path": "filePath"},
	"git.diff":       {"path": "filePath"},
}

// NewGoogleTranslator returns the Gemini-dialect Translator.
func NewGoogleTranslator() Translator {
	return newDialectTable("google", googleNames, googleParams)
}
