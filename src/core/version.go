package core

import "github.com/coreos/go-semver/semver"

// RawVersion is the unparsed raw version of tcbuild.
const RawVersion = "2.4.0"

// TcbuildVersion is the current version of tcbuild.
var TcbuildVersion = *semver.New(RawVersion)
