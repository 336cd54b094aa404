// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

import "fmt"

// run is the bytecode dispatch loop (spec.md §4.7). It executes until the
// outermost frame returns, a runtime error is raised, or a native function
// reports an error.
func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.closure.Closure.Fn.Fn.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() uint16 {
		hi := readByte()
		lo := readByte()
		return uint16(hi)<<8 | uint16(lo)
	}
	readConstant := func() Value {
		return frame.closure.Closure.Fn.Fn.Chunk.Constants.Get(int(readByte()))
	}
	readString := func() *Obj {
		return readConstant().Obj
	}

	for {
		op := OpCode(readByte())

		switch op {
		case OpConstant:
			vm.push(readConstant())

		case OpNil:
			vm.push(NilVal())
		case OpTrue:
			vm.push(BoolVal(true))
		case OpFalse:
			vm.push(BoolVal(false))

		case OpPop:
			vm.pop()

		case OpGetLocal:
			slot := readByte()
			vm.push(vm.stack[frame.slots+int(slot)])

		case OpSetLocal:
			slot := readByte()
			vm.stack[frame.slots+int(slot)] = vm.peek(0)

		case OpGetGlobal:
			name := readString()
			val, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Str.chars)
			}
			vm.push(val)

		case OpDefineGlobal:
			name := readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case OpSetGlobal:
			name := readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Str.chars)
			}

		case OpGetUpvalue:
			slot := readByte()
			vm.push(*frame.closure.Closure.Upvalues[slot].Upvalue.Location)

		case OpSetUpvalue:
			slot := readByte()
			*frame.closure.Closure.Upvalues[slot].Upvalue.Location = vm.peek(0)

		case OpGetProperty:
			name := readString()
			if !vm.peek(0).IsInstance() {
				return vm.runtimeError("Only instances have properties.")
			}
			instance := vm.peek(0).Obj.Instance
			if val, ok := instance.Fields.Get(name); ok {
				vm.pop() // instance
				vm.push(val)
				break
			}
			if !vm.bindMethod(instance.Class, name) {
				return vm.runtimeError("Undefined property '%s'.", name.Str.chars)
			}

		case OpSetProperty:
			if !vm.peek(1).IsInstance() {
				return vm.runtimeError("Only instances have fields.")
			}
			instance := vm.peek(1).Obj.Instance
			instance.Fields.Set(readString(), vm.peek(0))
			val := vm.pop()
			vm.pop() // instance
			vm.push(val)

		case OpGetSuper:
			name := readString()
			superclass := vm.pop().Obj
			if !vm.bindMethod(superclass, name) {
				return vm.runtimeError("Undefined property '%s'.", name.Str.chars)
			}

		case OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolVal(Equal(a, b)))

		case OpGreater:
			if err := vm.binaryNumberOp(op); err != nil {
				return err
			}
		case OpLess:
			if err := vm.binaryNumberOp(op); err != nil {
				return err
			}

		case OpAdd:
			switch {
			case vm.peek(0).IsString() && vm.peek(1).IsString():
				if err := vm.concatenate(); err != nil {
					return err
				}
			case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
				b := vm.pop().Number
				a := vm.pop().Number
				vm.push(NumberVal(a + b))
			default:
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}

		case OpSubtract, OpMultiply, OpDivide:
			if err := vm.binaryNumberOp(op); err != nil {
				return err
			}

		case OpNot:
			vm.push(BoolVal(vm.pop().IsFalsey()))

		case OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(NumberVal(-vm.pop().Number))

		case OpPrint:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case OpJump:
			offset := readShort()
			frame.ip += int(offset)

		case OpJumpIfFalse:
			offset := readShort()
			if vm.peek(0).IsFalsey() {
				frame.ip += int(offset)
			}

		case OpLoop:
			offset := readShort()
			frame.ip -= int(offset)

		case OpCall:
			argc := int(readByte())
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpInvoke:
			name := readString()
			argc := int(readByte())
			if err := vm.invoke(name, argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpSuperInvoke:
			name := readString()
			argc := int(readByte())
			superclass := vm.pop().Obj
			if err := vm.invokeFromClass(superclass, name, argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpClosure:
			fnObj := readConstant().Obj
			closure := vm.newObject(ObjClosure)
			closure.Closure = &ObjClosure{Fn: fnObj, Upvalues: make([]*Obj, fnObj.Fn.UpvalueCount)}
			vm.push(ObjVal(closure))
			for i := 0; i < fnObj.Fn.UpvalueCount; i++ {
				isLocal := readByte()
				index := readByte()
				if isLocal != 0 {
					closure.Closure.Upvalues[i] = vm.captureUpvalue(&vm.stack[frame.slots+int(index)])
				} else {
					closure.Closure.Upvalues[i] = frame.closure.Closure.Upvalues[index]
				}
			}

		case OpCloseUpvalue:
			vm.closeUpvalues(&vm.stack[vm.stackTop-1])
			vm.pop()

		case OpReturn:
			result := vm.pop()
			vm.closeUpvalues(&vm.stack[frame.slots])
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case OpClass:
			name := readString()
			class := vm.newObject(ObjClass)
			class.Class = &ObjClass{Name: name, Methods: &Table{}}
			vm.push(ObjVal(class))

		case OpInherit:
			superVal := vm.peek(1)
			if !superVal.IsClass() {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).Obj.Class
			AddAll(superVal.Obj.Class.Methods, subclass.Methods)
			vm.pop() // subclass

		case OpMethod:
			vm.defineMethod(readString())

		default:
			return vm.runtimeError("Invalid opcode 0x%02x.", byte(op))
		}
	}
}

// binaryNumberOp implements the five strictly-numeric binary opcodes:
// GREATER, LESS, SUBTRACT, MULTIPLY, DIVIDE.
func (vm *VM) binaryNumberOp(op OpCode) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().Number
	a := vm.pop().Number
	switch op {
	case OpGreater:
		vm.push(BoolVal(a > b))
	case OpLess:
		vm.push(BoolVal(a < b))
	case OpSubtract:
		vm.push(NumberVal(a - b))
	case OpMultiply:
		vm.push(NumberVal(a * b))
	case OpDivide:
		vm.push(NumberVal(a / b))
	}
	return nil
}

// concatenate implements spec.md §4.8: allocate a fresh buffer, intern it,
// keeping both source strings reachable on the stack until interning is
// done (intern-table insertion may itself trigger GC).
func (vm *VM) concatenate() error {
	b := vm.peek(0).Obj.Str
	a := vm.peek(1).Obj.Str
	result := a.chars + b.chars
	obj := vm.internString(result)
	vm.pop()
	vm.pop()
	vm.push(ObjVal(obj))
	return nil
}

// callValue dispatches on callee's kind, matching call_value's branches
// (spec.md §4.7).
func (vm *VM) callValue(callee Value, argc int) error {
	if callee.IsObject() {
		switch callee.Obj.Kind {
		case ObjBoundMethod:
			bound := callee.Obj.BoundMethod
			vm.stack[vm.stackTop-argc-1] = bound.Receiver
			return vm.callClosure(bound.Method, argc)

		case ObjClass:
			class := callee.Obj
			instance := vm.newObject(ObjInstance)
			instance.Instance = &ObjInstance{Class: class, Fields: &Table{}}
			vm.stack[vm.stackTop-argc-1] = ObjVal(instance)
			if initializer, ok := class.Class.Methods.Get(vm.initString); ok {
				return vm.callClosure(initializer.Obj, argc)
			} else if argc != 0 {
				return vm.runtimeError("Expected 0 arguments but got %d.", argc)
			}
			return nil

		case ObjClosure:
			return vm.callClosure(callee.Obj, argc)

		case ObjNative:
			native := callee.Obj.Native
			args := vm.stack[vm.stackTop-argc : vm.stackTop]
			result, err := native.Fn(vm, args)
			if err != nil {
				return vm.runtimeError("%s", err.Error())
			}
			vm.stackTop -= argc + 1
			vm.push(result)
			return nil
		}
	}
	return vm.runtimeError("Can only call functions and classes.")
}

// callClosure pushes a new call frame for closure, after checking arity and
// frame-stack capacity.
func (vm *VM) callClosure(closure *Obj, argc int) error {
	fn := closure.Closure.Fn.Fn
	if argc != fn.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", fn.Arity, argc)
	}
	if vm.frameCount == FramesMax {
		return vm.runtimeError("Stack overflow.")
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argc - 1
	return nil
}

// invoke implements the INVOKE fast path: the receiver is documented to
// already be an Instance by the emitting compiler (spec.md §4.7's
// precondition; §9's Open Question notes a defensive cast is optional). We
// add the defensive check the Open Question offers, since it costs one
// comparison and turns an otherwise-undefined cast into a clean error.
func (vm *VM) invoke(name *Obj, argc int) error {
	receiver := vm.peek(argc)
	if !receiver.IsInstance() {
		return vm.runtimeError("Only instances have methods.")
	}
	instance := receiver.Obj.Instance

	if val, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argc-1] = val
		return vm.callValue(val, argc)
	}

	return vm.invokeFromClass(instance.Class, name, argc)
}

func (vm *VM) invokeFromClass(class *Obj, name *Obj, argc int) error {
	method, ok := class.Class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Str.chars)
	}
	return vm.callClosure(method.Obj, argc)
}

// bindMethod pops the receiver and pushes a fresh BoundMethod, reporting
// false if name is not a method of class.
func (vm *VM) bindMethod(class *Obj, name *Obj) bool {
	method, ok := class.Class.Methods.Get(name)
	if !ok {
		return false
	}

	bound := vm.newObject(ObjBoundMethod)
	bound.BoundMethod = &ObjBoundMethod{Receiver: vm.peek(0), Method: method.Obj}
	vm.pop()
	vm.push(ObjVal(bound))
	return true
}

// defineMethod installs the Closure on top of stack into the class one
// below it, under name.
func (vm *VM) defineMethod(name *Obj) {
	method := vm.peek(0)
	class := vm.peek(1).Obj.Class
	class.Methods.Set(name, method)
	vm.pop()
}
