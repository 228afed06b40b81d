/*
Package logging implements application log instrumentation.

The application log uses the logrus package:

https://github.com/sirupsen/logrus

To send messages to the application log, import logrus and use its
methods. Example:

	import log "github.com/sirupsen/logrus"

	func doSomething() {
		log.Errorf("nothing to do")
	}

Components that accept a custom logger, like the header mutation
executor, take a Logger. The default implementation, returned by New,
writes through the same logrus logger.

During startup initialization, it is possible to redirect the log output
from the default /dev/stderr to another writer, to set the level, to
switch to JSON format and to set a common prefix for each log entry.
*/
package logging
