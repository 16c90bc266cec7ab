/*
Package errors implements custom error interfaces for quorum.

Reuse as many errors from this package as possible and define custom package
errors only when absolutely necessary. Extensions register their own root
errors with Register(code, description), see x/multisig for an example.

Code stands for the numeric error code returned to a client, which allows to
distinguish types of errors on the client side and act accordingly. Use
Info to get the code and a client safe message for any error.

Create error instances with ErrXyz.New("...") or errors.Wrap(err, "...") at
the point of failure so that a stacktrace is attached. If you wrap multiple
times, only the first wrap records the stacktrace.

Once you have an error, you can use fmt.Printf/Sprintf to get more context
	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors
