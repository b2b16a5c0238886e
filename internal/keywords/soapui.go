package keywords

import (
	"context"

	"soapctl/internal/library"
)

func str(name, desc string) Arg  { return Arg{Name: name, Type: ArgString, Description: desc} }
func flag(name, desc string) Arg { return Arg{Name: name, Type: ArgBool, Description: desc} }

// setter builds a keyword that forwards a single string to the library.
func setter(name, arg, doc string, set func(*library.Library, string) error) *Keyword {
	return &Keyword{
		Name: name,
		Doc:  doc,
		Args: []Arg{str(arg, doc)},
		call: func(_ context.Context, lib *library.Library, in values) (interface{}, error) {
			return nil, set(lib, in.str(arg))
		},
	}
}

func soapUIKeywords() []*Keyword {
	return []*Keyword{
		{
			Name: "SoapUI Customize Project",
			Doc:  "Sets the most commonly used values to the project and suite given as parameters.",
			Args: []Arg{
				str("project", "Path to the SoapUI project file"),
				str("suite", "Test suite to run"),
				str("output_folder", "Folder reports are written to"),
				flag("export_all", "Export results of all test steps, not only failed ones"),
				str("endpoint", "Endpoint overriding the one in the project"),
			},
			call: func(_ context.Context, lib *library.Library, in values) (interface{}, error) {
				return nil, lib.CustomizeProject(in.str("project"), in.str("suite"), in.str("output_folder"), in.boolean("export_all"), in.str("endpoint"))
			},
		},
		{
			Name: "SoapUI Project",
			Doc:  "Initializes the runner and sets the project file.",
			Args: []Arg{str("project", "Path to the SoapUI project file")},
			call: func(_ context.Context, lib *library.Library, in values) (interface{}, error) {
				return nil, lib.Project(in.str("project"))
			},
		},
		setter("SoapUI Suite", "suite", "Sets the test suite to run.", (*library.Library).Suite),
		setter("SoapUI Case", "test_case", "Sets the test case to run.", (*library.Library).Case),
		{
			Name: "SoapUI Add Project Property",
			Doc: "Adds a project property. This assumes the project was initialized " +
				"with `SoapUI Project`.",
			Args: []Arg{
				str("name", "Property name"),
				str("value", "Property value"),
			},
			call: func(_ context.Context, lib *library.Library, in values) (interface{}, error) {
				return nil, lib.AddProjectProperty(in.str("name"), in.str("value"))
			},
		},
		{
			Name: "SoapUI Set Project Property",
			Doc: "Sets project properties for the current test run, each given as key=value. " +
				"This assumes the project was initialized with `SoapUI Project`.\n\n" +
				"Useful to data drive existing SoapUI tests via property expansion.\n\n" +
				"| SoapUI Project | My Project |\n" +
				"| SoapUI Set Project Property | ServiceEndpoint=https://staging.company.com |\n" +
				"| SoapUI Set Project Property | CustomProperty=foo | AnotherProperty=bar |",
			Args: []Arg{{Name: "properties", Type: ArgVarargs, Description: "Properties as key=value"}},
			call: func(_ context.Context, lib *library.Library, in values) (interface{}, error) {
				return nil, lib.SetProjectProperty(in.list("properties")...)
			},
		},
		{
			Name: "SoapUI Run",
			Doc:  "Runs the configured tests and fails if the run does not complete or any test fails.",
			call: func(ctx context.Context, lib *library.Library, _ values) (interface{}, error) {
				return nil, lib.Run(ctx)
			},
		},
		{
			Name: "SoapUI Start Mock Service",
			Doc:  "Starts a mock service of the project without blocking.",
			Args: []Arg{
				str("project", "Path to the SoapUI project file"),
				str("mock_service", "Name of the mock service"),
			},
			call: func(ctx context.Context, lib *library.Library, in values) (interface{}, error) {
				return nil, lib.StartMockService(ctx, in.str("project"), in.str("mock_service"))
			},
		},
		{
			Name: "SoapUI Stop Mock Service",
			Doc:  "Stops the mock service.",
			call: func(_ context.Context, lib *library.Library, _ values) (interface{}, error) {
				return nil, lib.StopMockService()
			},
		},
		setter("SoapUI Set Endpoint", "endpoint", "Sets the endpoint used for all requests.", (*library.Library).SetEndpoint),
		setter("SoapUI Set Host", "host", "Sets the host:port used for all requests.", (*library.Library).SetHost),
		setter("SoapUI Set Password", "password", "Sets the password used for authentication.", (*library.Library).SetPassword),
		setter("SoapUI Set Username", "username", "Sets the username used for authentication.", (*library.Library).SetUsername),
		setter("SoapUI Set Domain", "domain", "Sets the domain used for authentication.", (*library.Library).SetDomain),
		setter("SoapUI Set Project Password", "password", "Sets the password of an encrypted project.", (*library.Library).SetProjectPassword),
		setter("SoapUI Set Output Folder", "output_folder", "Sets the folder reports are written to.", (*library.Library).SetOutputFolder),
		{
			Name: "SoapUI Set Export All",
			Doc:  "Sets whether results of all test steps are exported.",
			Args: []Arg{flag("export_all", "Export all results")},
			call: func(_ context.Context, lib *library.Library, in values) (interface{}, error) {
				return nil, lib.SetExportAll(in.boolean("export_all"))
			},
		},
		{
			Name: "SoapUI Set Print Report",
			Doc:  "Sets whether a short report is printed after the execution of each test case.",
			Args: []Arg{flag("print_report", "Print the report")},
			call: func(_ context.Context, lib *library.Library, in values) (interface{}, error) {
				return nil, lib.SetPrintReport(in.boolean("print_report"))
			},
		},
		{
			Name:    "SoapUI Get Test Case",
			Doc:     "Returns the test case currently configured on the runner.",
			Returns: true,
			call: func(_ context.Context, lib *library.Library, _ values) (interface{}, error) {
				return lib.GetTestCase()
			},
		},
	}
}
