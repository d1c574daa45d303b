package entities

// ModuleFile is one pure-code file discovered during analysis.
type ModuleFile struct {
	// Module is the dotted import name, e.g. "pyqtgraph.opengl.items".
	Module string
	// Path is the absolute location of the file on disk.
	Path string
	// ArchivePath is the slash-separated name the file gets inside the
	// code archive, e.g. "pyqtgraph/opengl/items.py".
	ArchivePath string
}

// Analysis is the output of the first pipeline stage: the closed set of code
// files, the merged hidden-import set, and the asset mappings collected
// verbatim from the spec.
type Analysis struct {
	Modules       []ModuleFile
	HiddenImports []string
	Assets        []AssetMapping
}
