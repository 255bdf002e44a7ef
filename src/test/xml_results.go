// parser for JUnit XML output.

package test

import (
	"bytes"
	"encoding/xml"
	"io"
	"time"
)

func looksLikeJUnitXMLTestResults(b []byte) bool {
	b = bytes.TrimSpace(b)
	return bytes.HasPrefix(b, []byte("<?xml")) || bytes.HasPrefix(b, []byte("<test"))
}

func parseJUnitXMLTestResults(data []byte) ([]Suite, error) {
	suites := []Suite{}
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		switch err {
		case nil:
		case io.EOF:
			return suites, nil
		default:
			return suites, err
		}

		tok, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch tok.Name.Local {
		case "testcase":
			// A bare test, put it in a synthetic suite named after its class.
			xmlTest := jUnitXMLTest{}
			if err := decoder.DecodeElement(&xmlTest, &tok); err != nil {
				return suites, err
			}
			suite := Suite{Name: xmlTest.ClassName}
			suite.add(toCase(xmlTest))
			suites = append(suites, suite)
		case "testsuite": // The usual output from junit's ant & maven reporters.
			xmlTestSuite := &jUnitXMLTestSuite{}
			if err := decoder.DecodeElement(xmlTestSuite, &tok); err != nil {
				return suites, err
			}
			suites = append(suites, toSuite(xmlTestSuite))
		case "testsuites":
			xmlTestSuites := jUnitXMLTestSuites{}
			if err := decoder.DecodeElement(&xmlTestSuites, &tok); err != nil {
				return suites, err
			}
			for _, xmlTestSuite := range xmlTestSuites.TestSuites {
				suites = append(suites, toSuite(xmlTestSuite))
			}
		}
	}
}

func toSuite(xmlTestSuite *jUnitXMLTestSuite) Suite {
	suite := Suite{
		Name:      xmlTestSuite.Name,
		Timestamp: xmlTestSuite.Timestamp,
	}
	for _, test := range xmlTestSuite.TestCases {
		suite.add(toCase(test))
	}
	// Some reporters only fill in the suite's time.
	if d := xmlTestSuite.Duration(); d > suite.Duration {
		suite.Duration = d
	}
	return suite
}

func toCase(test jUnitXMLTest) Case {
	c := Case{
		ClassName: test.ClassName,
		Name:      test.Name,
		Duration:  test.Duration(),
		Status:    Passed,
	}
	// There can be only one of these
	if test.Failure != nil {
		c.Status = Failed
		c.Message = test.Failure.Message
		c.Traceback = test.Failure.Traceback
	} else if test.Error != nil {
		c.Status = Errored
		c.Message = test.Error.Message
		c.Traceback = test.Error.Traceback
	} else if test.Skipped != nil {
		c.Status = Skipped
		c.Message = test.Skipped.Message
	}
	return c
}

type jUnitXMLTestSuites struct {
	TestSuites []*jUnitXMLTestSuite `xml:"testsuite,omitempty"`

	XMLName xml.Name `xml:"testsuites"`
}

type jUnitXMLTestSuite struct {
	Name  string `xml:"name,attr"`
	Tests int    `xml:"tests,attr"`

	Errors    int    `xml:"errors,attr,omitempty"`
	Failures  int    `xml:"failures,attr,omitempty"`
	Skipped   int    `xml:"skipped,attr,omitempty"`
	timed     `xml:"time,attr,omitempty"`
	Timestamp string `xml:"timestamp,attr,omitempty"`

	TestCases []jUnitXMLTest `xml:"testcase"`

	XMLName xml.Name `xml:"testsuite"`
}

type jUnitXMLTest struct {
	Name      string `xml:"name,attr"`
	ClassName string `xml:"classname,attr,omitempty"`
	timed     `xml:"time,attr,omitempty"`

	Error   *jUnitXMLFailure `xml:"error,omitempty"`
	Failure *jUnitXMLFailure `xml:"failure,omitempty"`
	Skipped *jUnitXMLSkipped `xml:"skipped,omitempty"`
}

type jUnitXMLFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr"`

	Traceback string `xml:",chardata"`
}

type jUnitXMLSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

type timed struct {
	Time float64 `xml:"time,attr"`
}

func (t timed) Duration() time.Duration {
	return time.Duration(t.Time * float64(time.Second))
}
