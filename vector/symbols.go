package vector

// Symbol names shared between the generated code, the assembly files and the
// linker script.
const (
	SymbolReset              = "Reset"
	SymbolEntry              = "main"
	SymbolPreInit            = "__pre_init"
	SymbolPreInitDefault     = "DefaultPreInit"
	SymbolDefaultHandler     = "DefaultHandler"
	SymbolDefaultHandlerLoop = "DefaultHandler_"
	SymbolHardFault          = "HardFault"
	SymbolHardFaultUser      = "_HardFault"
	SymbolHardFaultLoop      = "HardFault_"

	SymbolResetVector = "__RESET_VECTOR"
	SymbolExceptions  = "__EXCEPTIONS"
	SymbolInterrupts  = "__INTERRUPTS"
	SymbolVectorTable = "__vector_table"
	SymbolStackStart  = "_stack_start"
)

// Section names the linker script places explicitly.
const (
	SectionResetVector      = ".vector_table.reset_vector"
	SectionExceptions       = ".vector_table.exceptions"
	SectionInterrupts       = ".vector_table.interrupts"
	SectionReset            = ".Reset"
	SectionHardFaultTramp   = ".HardFaultTrampoline"
	SectionHardFaultUser    = ".HardFault.user"
	SectionHardFaultDefault = ".HardFault.default"
	SectionPreInit          = ".PreInit"
)

// ObservableSymbols are the names that must remain discoverable in the final
// image for layout auditing.
var ObservableSymbols = []string{
	SymbolVectorTable,
	SymbolResetVector,
	SymbolExceptions,
	SymbolInterrupts,
}
